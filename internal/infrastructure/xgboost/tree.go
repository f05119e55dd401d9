package xgboost

import (
	"errors"
	"fmt"
	"math"
)

type node struct {
	left        int
	right       int
	feature     int
	value       float32
	defaultLeft bool
}

// Tree is one compiled regression tree.
type Tree struct {
	nodes []node
}

func compileTree(td TreeDocument, numFeature int) (Tree, error) {
	n := len(td.LeftChildren)
	if n == 0 {
		return Tree{}, errors.New("no nodes")
	}
	if len(td.RightChildren) != n || len(td.SplitIndices) != n || len(td.SplitConditions) != n {
		return Tree{}, fmt.Errorf("node arrays disagree: left=%d right=%d split_indices=%d split_conditions=%d",
			n, len(td.RightChildren), len(td.SplitIndices), len(td.SplitConditions))
	}
	if len(td.DefaultLeft) != 0 && len(td.DefaultLeft) != n {
		return Tree{}, fmt.Errorf("default_left has %d entries for %d nodes", len(td.DefaultLeft), n)
	}

	nodes := make([]node, n)
	for i := range n {
		nd := node{
			left:    td.LeftChildren[i],
			right:   td.RightChildren[i],
			feature: td.SplitIndices[i],
			value:   float32(td.SplitConditions[i]),
		}
		if len(td.DefaultLeft) == n {
			nd.defaultLeft = td.DefaultLeft[i]
		}
		if v := float64(nd.value); math.IsNaN(v) || math.IsInf(v, 0) {
			return Tree{}, fmt.Errorf("node %d has non-finite value", i)
		}

		if nd.left == -1 {
			nodes[i] = nd
			continue
		}
		// Children are always written after their parent, which also rules out cycles.
		if nd.left <= i || nd.left >= n || nd.right <= i || nd.right >= n {
			return Tree{}, fmt.Errorf("node %d has invalid children %d/%d", i, nd.left, nd.right)
		}
		if nd.feature < 0 || nd.feature >= numFeature {
			return Tree{}, fmt.Errorf("node %d splits on feature %d, model has %d", i, nd.feature, numFeature)
		}
		nodes[i] = nd
	}
	return Tree{nodes: nodes}, nil
}

// Leaf returns the leaf value reached by row. Missing values (NaN) follow
// the node's default direction. Features and split conditions compare in
// single precision, as libxgboost stores them.
func (t Tree) Leaf(row []float64) float32 {
	i := 0
	for {
		nd := t.nodes[i]
		if nd.left == -1 {
			return nd.value
		}
		v := row[nd.feature]
		switch {
		case math.IsNaN(v):
			if nd.defaultLeft {
				i = nd.left
			} else {
				i = nd.right
			}
		case float32(v) < nd.value:
			i = nd.left
		default:
			i = nd.right
		}
	}
}

// NumNodes returns the number of nodes, leaves included.
func (t Tree) NumNodes() int { return len(t.nodes) }
