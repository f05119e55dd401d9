// Package rest serves the inference API over HTTP/JSON.
package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/model"
)

// Error messages returned to clients.
const (
	msgNotReady   = "Models not loaded. Please ensure model files are available."
	msgNoData     = "No data provided"
	msgPreprocess = "Data preprocessing failed: "
	msgPrediction = "Prediction failed: "
	msgUnexpected = "An unexpected error occurred: "
)

// maxBodyBytes bounds a single application record.
const maxBodyBytes = 1 << 20

// PredictResponse is the public shape of a successful prediction.
type PredictResponse struct {
	Message     string  `json:"message"`
	RiskLevel   string  `json:"risk_level"`
	Rationale   string  `json:"rationale"`
	Probability float64 `json:"probability"`
	Prediction  int     `json:"prediction"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Endpoints map[string]string `json:"endpoints"`
	Message   string            `json:"message"`
	Usage     string            `json:"usage"`
}

// Handler serves the credit risk HTTP API.
type Handler struct {
	assess    *usecase.AssessApplication
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler creates a new HTTP handler.
func NewHandler(assess *usecase.AssessApplication, logger *slog.Logger) *Handler {
	return &Handler{
		assess:    assess,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers the API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /predict", h.Predict)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Index describes the API.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message: "Credit Risk Assessment API",
		Endpoints: map[string]string{
			"GET /":         "API information",
			"GET /health":   "Health check",
			"POST /predict": "Make credit risk prediction",
		},
		Usage: "Send POST request to /predict with loan applicant features",
	})
}

// Predict scores one loan application.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.assess.Ready() {
		writeError(w, http.StatusServiceUnavailable, msgNotReady)
		return
	}

	record, err := decodeRecord(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "rejected request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(ctx, "received prediction request", slog.Int("fields", len(record)))

	resp, err := h.assess.Execute(ctx, record)
	if err != nil {
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "prediction request failed", slog.String("error", err.Error()))
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, toPredictResponse(resp))
}

func toPredictResponse(resp dto.AssessmentResponse) PredictResponse {
	return PredictResponse{
		Prediction:  resp.Prediction,
		Probability: resp.Probability,
		Message:     resp.Message,
		RiskLevel:   resp.RiskLevel,
		Rationale:   resp.Rationale,
	}
}

// decodeRecord reads one JSON object. Numbers stay json.Number so integer
// fields keep their exact value until the preprocessor converts them.
func decodeRecord(body io.Reader) (model.FeatureRecord, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(msgNoData)
	}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.New("invalid JSON body: expected one object of applicant features")
	}
	if len(fields) == 0 {
		return nil, errors.New(msgNoData)
	}
	return model.NewFeatureRecord(fields), nil
}

// classify maps an inference error to an HTTP status and client message.
func classify(err error) (int, string) {
	var (
		pre  *model.PreprocessingError
		pred *model.PredictionError
	)
	switch {
	case errors.Is(err, model.ErrNotReady):
		return http.StatusServiceUnavailable, msgNotReady
	case errors.As(err, &pre):
		return http.StatusBadRequest, msgPreprocess + pre.Err.Error()
	case errors.As(err, &pred):
		return http.StatusInternalServerError, msgPrediction + pred.Err.Error()
	default:
		return http.StatusInternalServerError, msgUnexpected + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
