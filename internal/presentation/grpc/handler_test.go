package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/infrastructure/artifact"
	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/observability"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

// --- Helpers ---

func loadedAssess(t *testing.T, modelDoc map[string]any) *usecase.AssessApplication {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteArtifacts(t, dir)
	if modelDoc != nil {
		testutil.WriteJSON(t, dir, artifact.DefaultModelFile, modelDoc)
	}

	artifacts, err := artifact.NewStore(artifact.Config{Dir: dir}, observability.DiscardLogger()).Load(context.Background())
	require.NoError(t, err)
	return usecase.NewAssessApplication(artifacts, nil, nil, observability.DiscardLogger())
}

func buildTestHandler(t *testing.T, requireAuth bool) *CreditRiskHandler {
	t.Helper()
	return NewCreditRiskHandler(loadedAssess(t, nil), usecase.NewExplainApplication(), requireAuth, observability.DiscardLogger())
}

func contextWithRoles(roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{ClientID: "loan-portal", Roles: roles})
}

// requireGRPCCode asserts that an error is a gRPC status error with the given code.
func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %T: %v", err, err)
	assert.Equal(t, code, st.Code(), "expected gRPC code %s, got %s: %s", code, st.Code(), st.Message())
}

// --- Tests ---

func TestPredict(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, false)
		_, err := h.Predict(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "No data provided")
	})

	t.Run("empty features returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, false)
		_, err := h.Predict(context.Background(), &PredictRequest{Features: map[string]any{}})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("missing numeric field returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(t, false)
		_, err := h.Predict(context.Background(), &PredictRequest{
			Features: testutil.Applicant(testutil.LowRiskApplicant, map[string]any{"person_age": nil}),
		})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "Data preprocessing failed:")
	})

	t.Run("scoring failure returns Internal", func(t *testing.T) {
		doc := testutil.ModelDocument()
		doc["learner"].(map[string]any)["learner_model_param"].(map[string]any)["num_feature"] = "30"
		h := NewCreditRiskHandler(loadedAssess(t, doc), usecase.NewExplainApplication(), false, observability.DiscardLogger())

		_, err := h.Predict(context.Background(), &PredictRequest{Features: testutil.LowRiskApplicant})
		requireGRPCCode(t, err, codes.Internal)
		assert.Contains(t, err.Error(), "Prediction failed: feature shape mismatch")
	})

	t.Run("not ready returns Unavailable", func(t *testing.T) {
		h := NewCreditRiskHandler(
			usecase.NewAssessApplication(nil, nil, nil, observability.DiscardLogger()),
			usecase.NewExplainApplication(), false, observability.DiscardLogger())
		_, err := h.Predict(context.Background(), &PredictRequest{Features: testutil.LowRiskApplicant})
		requireGRPCCode(t, err, codes.Unavailable)
	})

	t.Run("happy path returns decision", func(t *testing.T) {
		h := buildTestHandler(t, false)
		resp, err := h.Predict(context.Background(), &PredictRequest{Features: testutil.HighRiskApplicant})
		require.NoError(t, err)
		assert.Equal(t, int32(1), resp.Prediction)
		assert.Equal(t, "High Risk", resp.RiskLevel)
		assert.Equal(t, "booster", resp.ScoringPath)
		assert.NotEmpty(t, resp.AssessmentID)
		assert.Contains(t, resp.RationaleTags, "Previous default on file")
	})
}

func TestPredict_Roles(t *testing.T) {
	h := buildTestHandler(t, true)
	req := &PredictRequest{Features: testutil.LowRiskApplicant}

	_, err := h.Predict(context.Background(), req)
	requireGRPCCode(t, err, codes.Unauthenticated)

	_, err = h.Predict(contextWithRoles(auth.RoleAuditor), req)
	requireGRPCCode(t, err, codes.PermissionDenied)

	_, err = h.Predict(contextWithRoles(auth.RoleUnderwriter), req)
	require.NoError(t, err)

	_, err = h.Explain(contextWithRoles(auth.RoleAuditor), &ExplainRequest{Features: testutil.LowRiskApplicant, Probability: 0.2})
	require.NoError(t, err)
}

func TestExplain(t *testing.T) {
	h := buildTestHandler(t, false)

	resp, err := h.Explain(context.Background(), &ExplainRequest{Features: testutil.HighRiskApplicant, Probability: 0.9})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"High loan-to-income ratio",
		"Very high interest rate",
		"Short credit history",
		"Previous default on file",
	}, resp.RationaleTags)
	assert.Equal(t, "High loan-to-income ratio, Very high interest rate, Short credit history, Previous default on file", resp.Rationale)

	_, err = h.Explain(context.Background(), &ExplainRequest{Features: testutil.HighRiskApplicant, Probability: 1.5})
	requireGRPCCode(t, err, codes.InvalidArgument)

	_, err = h.Explain(context.Background(), nil)
	requireGRPCCode(t, err, codes.InvalidArgument)
}

func TestServer_RoundTrip(t *testing.T) {
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "creditrisk"})
	require.NoError(t, err)

	srv, err := NewServer(buildTestHandler(t, true), ServerConfig{JWT: jwtService, Ready: true}, observability.DiscardLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()

	t.Run("health is public", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("predict without token", func(t *testing.T) {
		var resp PredictResponse
		err := conn.Invoke(ctx, PredictFullMethod, &PredictRequest{Features: testutil.LowRiskApplicant}, &resp,
			grpclib.CallContentSubtype(CodecName))
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("predict with token", func(t *testing.T) {
		token, err := jwtService.IssueToken("loan-portal", []string{auth.RoleAPIClient})
		require.NoError(t, err)
		authCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		var resp PredictResponse
		err = conn.Invoke(authCtx, PredictFullMethod, &PredictRequest{Features: testutil.LowRiskApplicant}, &resp,
			grpclib.CallContentSubtype(CodecName))
		require.NoError(t, err)
		assert.Equal(t, int32(0), resp.Prediction)
		assert.Equal(t, "Low Risk: This loan application has a 47.50% probability of default. Recommended for approval.", resp.Message)
	})

	t.Run("not serving after SetReady(false)", func(t *testing.T) {
		srv.SetReady(false)
		t.Cleanup(func() { srv.SetReady(true) })

		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
	})
}
