package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "creditrisk-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func rsaKeyPEMs(t *testing.T) (string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	return string(priv), string(pub)
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.IssueToken("loan-portal", []string{RoleAPIClient})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "loan-portal", claims.ClientID)
	assert.Equal(t, "loan-portal", claims.Subject)
	assert.Equal(t, "creditrisk-test", claims.Issuer)
	assert.True(t, claims.HasRole(RoleAPIClient))
	assert.False(t, claims.HasRole(RoleAdmin))
	assert.True(t, claims.HasAnyRole(RoleAdmin, RoleAPIClient))
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := newTestJWTService(t)

	expired := newTestJWTService(t)
	expired.cfg.Expiration = -time.Minute
	expiredToken, err := expired.IssueToken("c", nil)
	require.NoError(t, err)

	otherIssuer, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else"})
	require.NoError(t, err)
	wrongIssuerToken, err := otherIssuer.IssueToken("c", nil)
	require.NoError(t, err)

	otherSecret, err := NewJWTService(JWTConfig{Secret: "different", Issuer: "creditrisk-test"})
	require.NoError(t, err)
	wrongSecretToken, err := otherSecret.IssueToken("c", nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expiredToken},
		{"wrong issuer", wrongIssuerToken},
		{"wrong secret", wrongSecretToken},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			require.Error(t, err)
		})
	}
}

func TestRSAModes(t *testing.T) {
	priv, pub := rsaKeyPEMs(t)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: priv})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: pub})
	require.NoError(t, err)

	token, err := issuer.IssueToken("batch-underwriting", []string{RoleUnderwriter})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleUnderwriter))

	_, err = validator.IssueToken("x", nil)
	assert.ErrorIs(t, err, ErrValidationOnly)

	// An HS256 token must not validate against an RSA key.
	hs := newTestJWTService(t)
	hsToken, err := hs.IssueToken("x", nil)
	require.NoError(t, err)
	_, err = validator.ValidateToken(hsToken)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)

	_, err = NewJWTService(JWTConfig{PublicKeyPEM: "not pem"})
	assert.Error(t, err)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.IssueToken("loan-portal", []string{RoleAPIClient})
	require.NoError(t, err)

	interceptor := UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return claims.ClientID, nil
	}
	info := func(method string) *grpc.UnaryServerInfo { return &grpc.UnaryServerInfo{FullMethod: method} }

	t.Run("skipped method", func(t *testing.T) {
		resp, err := interceptor(context.Background(), nil, info("/grpc.health.v1.Health/Check"), handler)
		require.NoError(t, err)
		assert.Equal(t, "anonymous", resp)
	})

	t.Run("missing metadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info("/creditrisk.v1.CreditRiskService/Predict"), handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid bearer", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		resp, err := interceptor(ctx, nil, info("/creditrisk.v1.CreditRiskService/Predict"), handler)
		require.NoError(t, err)
		assert.Equal(t, "loan-portal", resp)
	})

	t.Run("bad token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope"))
		_, err := interceptor(ctx, nil, info("/creditrisk.v1.CreditRiskService/Predict"), handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.IssueToken("loan-portal", []string{RoleAPIClient})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			_, _ = w.Write([]byte(claims.ClientID))
		}
	})
	h := HTTPMiddleware(svc, []string{"/health"})(next)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"skip path", "/health", "", http.StatusOK, ""},
		{"missing header", "/predict", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/predict", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "/predict", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "/predict", "Bearer " + token, http.StatusOK, "loan-portal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
