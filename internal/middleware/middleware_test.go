package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/config"
	"userauth/api/internal/metrics"
	"userauth/api/internal/response"
	"userauth/api/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) Revoke(context.Context, string, time.Time) error { return nil }

func (s stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return s.revoked[id], s.err
}

func newIssuer(now time.Time) *security.TokenIssuer {
	return security.NewTokenIssuer(config.SecurityConfig{
		JWTAccessSecret:  "access",
		JWTRefreshSecret: "refresh",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    time.Hour,
	}, security.WithClock(func() time.Time { return now }))
}

func decodeEnvelope(t *testing.T, body []byte) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestAuth(t *testing.T) {
	now := time.Now()
	issuer := newIssuer(now)
	access, err := issuer.IssueAccess("user-1")
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh("user-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		revoked    stubRevocations
		wantStatus int
		wantMsg    string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantMsg: MessageTokenRequired},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMsg: MessageTokenRequired},
		{name: "garbage", header: "Bearer abc", wantStatus: http.StatusUnauthorized, wantMsg: MessageTokenInvalid},
		{name: "refresh token", header: "Bearer " + refresh.Token, wantStatus: http.StatusUnauthorized, wantMsg: MessageTokenInvalid},
		{
			name:       "revoked",
			header:     "Bearer " + access.Token,
			revoked:    stubRevocations{revoked: map[string]bool{access.ID: true}},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    MessageTokenInvalid,
		},
		{
			name:       "revocation backend down",
			header:     "Bearer " + access.Token,
			revoked:    stubRevocations{err: errors.New("redis down")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    response.MessageInternal,
		},
		{name: "valid", header: "Bearer " + access.Token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/me", Auth(issuer, tt.revoked, zerolog.New(io.Discard)), func(c *gin.Context) {
				identity, ok := CurrentIdentity(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"userId": identity.UserID, "tokenId": identity.TokenID})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMsg != "" {
				env := decodeEnvelope(t, rec.Body.Bytes())
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantMsg, env.Message)
				return
			}
			assert.JSONEq(t, `{"userId":"user-1","tokenId":"`+access.ID+`"}`, rec.Body.String())
		})
	}
}

func TestCurrentIdentity_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentIdentity(c)
	assert.False(t, ok)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), Recovery(zerolog.New(&buf)))
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, response.MessageInternal, env.Message)
	assert.Contains(t, buf.String(), "kaboom")
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), Logger(zerolog.New(&buf)))
	router.GET("/users/:id", func(c *gin.Context) {
		SetIdentity(c, Identity{UserID: "u1"})
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/users/:id", entry["route"])
	assert.Equal(t, "/users/42", entry["path"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.EqualValues(t, 404, entry["status"])
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `route="/healthz"`)
	assert.Contains(t, body, `route="unmatched"`)
}
