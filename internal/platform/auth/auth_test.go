package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/config"
	"library-backend/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn := testutil.OpenDB(t)
	return NewService(conn, config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ged", "earthsea1", RoleLibrarian))
	assert.True(t, errors.Is(svc.Register(ctx, "ged", "earthsea1", RoleUser), ErrAlreadyExists))

	token, err := svc.Login(ctx, "ged", "earthsea1")
	require.NoError(t, err)

	claims, err := ParseToken(svc.Secret(), token)
	require.NoError(t, err)
	assert.Equal(t, "ged", claims.Subject)
	assert.Equal(t, RoleLibrarian, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = svc.Login(ctx, "ged", "wrong-password")
	assert.True(t, errors.Is(err, ErrAuthFailed))
	_, err = svc.Login(ctx, "nobody", "earthsea1")
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(svc.Register(ctx, "ged", "short", RoleUser)))
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(svc.Register(ctx, " ", "earthsea1", RoleUser)))
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(svc.Register(ctx, "ged", "earthsea1", "root")))
}

func TestDisableAndChangeID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ged", "earthsea1", RoleUser))
	require.NoError(t, svc.Register(ctx, "tenar", "earthsea1", RoleUser))

	require.NoError(t, svc.SetDisabled(ctx, "ged", true))
	_, err := svc.Login(ctx, "ged", "earthsea1")
	assert.True(t, errors.Is(err, ErrDisabled))
	require.NoError(t, svc.SetDisabled(ctx, "ged", false))

	assert.True(t, errors.Is(svc.ChangeID(ctx, "ged", "tenar"), ErrAlreadyExists))
	require.NoError(t, svc.ChangeID(ctx, "ged", "sparrowhawk"))
	_, err = svc.Login(ctx, "sparrowhawk", "earthsea1")
	assert.NoError(t, err)

	assert.True(t, errors.Is(svc.ChangeID(ctx, "ged", "x"), ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, "ged"), ErrNotFound))
	assert.NoError(t, svc.Delete(ctx, "tenar"))
	assert.True(t, errors.Is(svc.SetDisabled(ctx, "tenar", true), ErrNotFound))
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ged",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "ged"}})
	s, err = noExp.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS384, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ged", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err = other.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err, "only HS256 is accepted")

	_, err = ParseToken([]byte("another-secret"), mustToken(t, secret, RoleUser))
	assert.Error(t, err)
}

func mustToken(t *testing.T, secret []byte, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ged",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")

	r := gin.New()
	g := r.Group("/api", RequireAuth(secret))
	g.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxUserIDKey)) })
	g.PUT("/staff", RequireRole(RoleLibrarian, RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(method, path, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body apierr.ErrorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeUnauthenticated, body.Error.Code)

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/me", "Bearer garbage").Code)

	w = call(http.MethodGet, "/api/me", "Bearer "+mustToken(t, secret, RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ged", w.Body.String())

	assert.Equal(t, http.StatusForbidden, call(http.MethodPut, "/api/staff", "Bearer "+mustToken(t, secret, RoleUser)).Code)
	assert.Equal(t, http.StatusNoContent, call(http.MethodPut, "/api/staff", "bearer "+mustToken(t, secret, RoleLibrarian)).Code)
}

func TestHandler_RegisterForcesUserRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), r.Group("/api", RequireAuth(svc.Secret()), RequireRole(RoleAdmin)), svc)

	post := func(path, body, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/auth/register", `{"id":"ged","password":"earthsea1","role":"admin"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = post("/api/auth/login", `{"id":"ged","password":"earthsea1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	claims, err := ParseToken(svc.Secret(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)

	w = post("/api/auth/login", `{"id":"ged","password":"nope-nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/api/auth/accounts", `{"id":"tenar","password":"earthsea1","role":"librarian"}`, "Bearer "+res.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
