package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/pkg/auth"
)

// Roles allowed to call each method when authentication is enabled.
var (
	predictRoles = []string{auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAPIClient}
	explainRoles = []string{auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAuditor, auth.RoleAPIClient}
)

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	if claims.HasAnyRole(roles...) {
		return nil
	}
	return status.Error(codes.PermissionDenied, "insufficient permissions")
}

// Compile-time assertion that CreditRiskHandler implements CreditRiskServiceServer.
var _ CreditRiskServiceServer = (*CreditRiskHandler)(nil)

// CreditRiskHandler implements the gRPC CreditRiskServiceServer interface.
type CreditRiskHandler struct {
	UnimplementedCreditRiskServiceServer
	assess      *usecase.AssessApplication
	explain     *usecase.ExplainApplication
	logger      *slog.Logger
	requireAuth bool
}

// NewCreditRiskHandler creates a new gRPC handler. With requireAuth set,
// every call must carry claims granting an allowed role.
func NewCreditRiskHandler(
	assess *usecase.AssessApplication,
	explain *usecase.ExplainApplication,
	requireAuth bool,
	logger *slog.Logger,
) *CreditRiskHandler {
	return &CreditRiskHandler{
		assess:      assess,
		explain:     explain,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

// Proto-aligned request/response message types.

// PredictRequest carries one raw loan application.
type PredictRequest struct {
	Features map[string]any `json:"features"`
}

// PredictResponse is the decision for one application.
type PredictResponse struct {
	AssessmentID  string   `json:"assessment_id"`
	Message       string   `json:"message"`
	RiskLevel     string   `json:"risk_level"`
	Rationale     string   `json:"rationale"`
	ScoringPath   string   `json:"scoring_path"`
	RationaleTags []string `json:"rationale_tags"`
	Probability   float64  `json:"probability"`
	Prediction    int32    `json:"prediction"`
}

// ExplainRequest asks for the rationale of an application at a probability.
type ExplainRequest struct {
	Features    map[string]any `json:"features"`
	Probability float64        `json:"probability"`
}

// ExplainResponse carries the rationale tags.
type ExplainResponse struct {
	Rationale     string   `json:"rationale"`
	RationaleTags []string `json:"rationale_tags"`
}

// Predict scores one loan application.
func (h *CreditRiskHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if h.requireAuth {
		if err := requireRole(ctx, predictRoles...); err != nil {
			return nil, err
		}
	}

	if req == nil || len(req.Features) == 0 {
		return nil, status.Error(codes.InvalidArgument, "No data provided")
	}

	result, err := h.assess.Execute(ctx, model.NewFeatureRecord(req.Features))
	if err != nil {
		st := statusFromError(err)
		if st.Code() == codes.Internal {
			h.logger.ErrorContext(ctx, "failed to assess application",
				slog.String("error", err.Error()),
			)
		}
		return nil, st.Err()
	}

	return toPredictResponse(result), nil
}

// Explain returns the rationale tags for an application without scoring it.
func (h *CreditRiskHandler) Explain(ctx context.Context, req *ExplainRequest) (*ExplainResponse, error) {
	if h.requireAuth {
		if err := requireRole(ctx, explainRoles...); err != nil {
			return nil, err
		}
	}

	if req == nil || len(req.Features) == 0 {
		return nil, status.Error(codes.InvalidArgument, "No data provided")
	}
	if req.Probability < 0 || req.Probability > 1 {
		return nil, status.Errorf(codes.InvalidArgument, "probability %v is outside [0, 1]", req.Probability)
	}

	result := h.explain.Execute(ctx, dto.ExplainRequest{
		Features:    req.Features,
		Probability: req.Probability,
	})
	return &ExplainResponse{
		Rationale:     result.Rationale,
		RationaleTags: result.RationaleTags,
	}, nil
}

func toPredictResponse(r dto.AssessmentResponse) *PredictResponse {
	id := ""
	if r.ID != uuid.Nil {
		id = r.ID.String()
	}
	return &PredictResponse{
		AssessmentID:  id,
		Prediction:    int32(r.Prediction),
		Probability:   r.Probability,
		Message:       r.Message,
		RiskLevel:     r.RiskLevel,
		Rationale:     r.Rationale,
		RationaleTags: r.RationaleTags,
		ScoringPath:   r.ScoringPath,
	}
}

// statusFromError maps inference errors to gRPC status codes.
func statusFromError(err error) *status.Status {
	var (
		pre  *model.PreprocessingError
		pred *model.PredictionError
	)
	switch {
	case errors.Is(err, model.ErrNotReady):
		return status.New(codes.Unavailable, "Models not loaded. Please ensure model files are available.")
	case errors.As(err, &pre):
		return status.New(codes.InvalidArgument, "Data preprocessing failed: "+pre.Err.Error())
	case errors.As(err, &pred):
		return status.New(codes.Internal, "Prediction failed: "+pred.Err.Error())
	default:
		return status.New(codes.Internal, "An unexpected error occurred: "+err.Error())
	}
}
