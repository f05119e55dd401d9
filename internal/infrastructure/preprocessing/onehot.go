package preprocessing

import (
	"fmt"
	"slices"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

type oneHotEncoder struct {
	name          string
	columns       []string
	categories    [][]string
	index         []map[string]int
	handleUnknown string
	total         int
}

func newOneHotEncoder(sd StepDocument) (*oneHotEncoder, error) {
	if len(sd.Categories) != len(sd.Columns) {
		return nil, fmt.Errorf("categories given for %d of %d columns", len(sd.Categories), len(sd.Columns))
	}

	e := &oneHotEncoder{
		name:          sd.Name,
		columns:       slices.Clone(sd.Columns),
		handleUnknown: sd.HandleUnknown,
	}
	switch e.handleUnknown {
	case "":
		e.handleUnknown = HandleUnknownIgnore
	case HandleUnknownIgnore, HandleUnknownError:
	default:
		return nil, fmt.Errorf("unsupported handle_unknown %q", sd.HandleUnknown)
	}

	for i, cats := range sd.Categories {
		if len(cats) == 0 {
			return nil, fmt.Errorf("column %q has no categories", sd.Columns[i])
		}
		idx := make(map[string]int, len(cats))
		for j, c := range cats {
			if _, dup := idx[c]; dup {
				return nil, fmt.Errorf("column %q lists category %q twice", sd.Columns[i], c)
			}
			idx[c] = j
		}
		e.categories = append(e.categories, slices.Clone(cats))
		e.index = append(e.index, idx)
		e.total += len(cats)
	}
	return e, nil
}

func (e *oneHotEncoder) width() int { return e.total }

// encode sets one indicator per column. Unknown, missing and non-string values
// leave the column's indicators at zero unless handle_unknown is "error".
func (e *oneHotEncoder) encode(record model.FeatureRecord, dst []float64) error {
	clear(dst)
	offset := 0
	for i, col := range e.columns {
		value, ok := record.Category(col)
		j, known := e.index[i][value]
		switch {
		case ok && known:
			dst[offset+j] = 1
		case e.handleUnknown == HandleUnknownError:
			return fmt.Errorf("column %q: unknown category %#v", col, record[col])
		}
		offset += len(e.categories[i])
	}
	return nil
}

func (e *oneHotEncoder) featureNames(prefix string) []string {
	out := make([]string, 0, e.total)
	for i, col := range e.columns {
		for _, c := range e.categories[i] {
			out = append(out, prefix+"__"+col+"_"+c)
		}
	}
	return out
}

func (e *oneHotEncoder) info() StepInfo {
	cats := make([][]string, len(e.categories))
	for i, c := range e.categories {
		cats[i] = slices.Clone(c)
	}
	return StepInfo{
		Name:          e.name,
		Kind:          KindOneHot,
		Columns:       slices.Clone(e.columns),
		Categories:    cats,
		HandleUnknown: e.handleUnknown,
		OutputWidth:   e.width(),
	}
}
