package testutil

import (
	"strconv"
	"testing"
)

// Artifact file names used by the fixtures.
const (
	PreprocessorFile = "preprocessor.json"
	ModelFile        = "final_xgb_model.json"
)

// Categories of the fixture preprocessor, in encoding order.
var (
	HomeOwnershipCategories = []string{"MORTGAGE", "OTHER", "OWN", "RENT"}
	LoanIntentCategories    = []string{"DEBTCONSOLIDATION", "EDUCATION", "HOMEIMPROVEMENT", "MEDICAL", "PERSONAL", "VENTURE"}
	LoanGradeCategories     = []string{"A", "B", "C", "D", "E", "F", "G"}
	DefaultFlagCategories   = []string{"N", "Y"}
)

// FixtureWidth is the encoded width of PreprocessorDocument: seven scaled
// numeric columns followed by 19 indicators.
const FixtureWidth = 26

// PreprocessorDocument returns a fitted preprocessor over the loan schema.
func PreprocessorDocument() map[string]any {
	return map[string]any{
		"version":   1,
		"remainder": "drop",
		"transformers": []any{
			map[string]any{
				"name": "num",
				"kind": "standard_scaler",
				"columns": []string{
					"person_age", "person_income", "person_emp_length", "loan_amnt",
					"loan_int_rate", "loan_percent_income", "cb_person_cred_hist_length",
				},
				"mean":  []float64{27.7, 66000, 4.8, 9600, 11.0, 0.17, 5.8},
				"scale": []float64{6.3, 62000, 4.1, 6300, 3.2, 0.107, 4.05},
			},
			map[string]any{
				"name":           "cat",
				"kind":           "one_hot",
				"handle_unknown": "ignore",
				"columns": []string{
					"person_home_ownership", "loan_intent", "loan_grade", "cb_person_default_on_file",
				},
				"categories": [][]string{
					HomeOwnershipCategories,
					LoanIntentCategories,
					LoanGradeCategories,
					DefaultFlagCategories,
				},
			},
		},
	}
}

// ModelDocument returns a three-tree binary:logistic booster over the
// PreprocessorDocument output, serialized as XGBoost's JSON model format with
// the scikit-learn wrapper attributes of an older release and GPU settings.
//
// The trees add, in margin space:
//   - loan_percent_income (col 5) >= 1.0: 0.4, or 1.6 when loan_int_rate (col 4) >= 1.0; else -0.8
//   - default flag "Y" (col 25) >= 0.5: 0.9; else -0.3
//   - cb_person_cred_hist_length (col 6) < -0.7: 0.5; else -0.2
func ModelDocument() map[string]any {
	return map[string]any{
		"version": []int{1, 7, 6},
		"learner": map[string]any{
			"attributes": map[string]any{
				"scikit_learn": `{"n_estimators": 3, "objective": "binary:logistic", "tree_method": "gpu_hist", "gpu_id": 0, "predictor": "gpu_predictor", "n_jobs": 8, "_estimator_type": "classifier", "n_classes_": 2}`,
			},
			"feature_names": []string{},
			"gradient_booster": map[string]any{
				"name": "gbtree",
				"model": map[string]any{
					"gbtree_model_param": map[string]any{"num_trees": "3", "num_parallel_tree": "1"},
					"tree_info":          []int{0, 0, 0},
					"trees": []any{
						tree(0,
							[]int{1, -1, 3, -1, -1},
							[]int{2, -1, 4, -1, -1},
							[]int{5, 0, 4, 0, 0},
							[]float64{1.0, -0.8, 1.0, 0.4, 1.6},
							[]bool{true, false, true, false, false},
						),
						tree(1,
							[]int{1, -1, -1},
							[]int{2, -1, -1},
							[]int{25, 0, 0},
							[]float64{0.5, -0.3, 0.9},
							[]bool{true, false, false},
						),
						tree(2,
							[]int{1, -1, -1},
							[]int{2, -1, -1},
							[]int{6, 0, 0},
							[]float64{-0.7, 0.5, -0.2},
							[]bool{false, false, false},
						),
					},
				},
			},
			"learner_model_param": map[string]any{
				"base_score":  "5E-1",
				"num_class":   "0",
				"num_feature": "26",
				"num_target":  "1",
			},
			"objective": map[string]any{
				"name":           "binary:logistic",
				"reg_loss_param": map[string]any{"scale_pos_weight": "1"},
			},
		},
		"config": map[string]any{
			"learner": map[string]any{
				"generic_param": map[string]any{"gpu_id": "0", "nthread": "8"},
				"gradient_booster": map[string]any{
					"gbtree_train_param": map[string]any{"tree_method": "gpu_hist", "predictor": "gpu_predictor"},
				},
			},
		},
	}
}

func tree(id int, left, right, index []int, cond []float64, defaultLeft []bool) map[string]any {
	return map[string]any{
		"id":               id,
		"left_children":    left,
		"right_children":   right,
		"split_indices":    index,
		"split_conditions": cond,
		"default_left":     defaultLeft,
		"base_weights":     cond,
		"tree_param": map[string]any{
			"num_nodes":        strconv.Itoa(len(left)),
			"num_feature":      "26",
			"num_deleted":      "0",
			"size_leaf_vector": "1",
		},
	}
}

// WriteArtifacts writes the fixture preprocessor and model into dir.
func WriteArtifacts(t *testing.T, dir string) (preprocessorPath, modelPath string) {
	t.Helper()
	return WriteJSON(t, dir, PreprocessorFile, PreprocessorDocument()),
		WriteJSON(t, dir, ModelFile, ModelDocument())
}
