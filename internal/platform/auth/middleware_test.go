package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(roles ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "clinician-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
}

func runWith(t *testing.T, mws []echo.MiddlewareFunc, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	var h echo.HandlerFunc = func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return c, h(c)
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runWith(t, []echo.MiddlewareFunc{JWTMiddleware(JWTConfig{SigningKey: testSigningKey})}, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runWith(t, []echo.MiddlewareFunc{JWTMiddleware(JWTConfig{SigningKey: testSigningKey})}, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tok := createTestToken(t, validClaims("clinician"), testSigningKey)
	c, err := runWith(t, []echo.MiddlewareFunc{JWTMiddleware(JWTConfig{SigningKey: testSigningKey})}, "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UserIDFromContext(c.Request().Context()); got != "clinician-1" {
		t.Errorf("expected clinician-1, got %q", got)
	}
	if roles := RolesFromContext(c.Request().Context()); len(roles) != 1 || roles[0] != "clinician" {
		t.Errorf("unexpected roles %v", roles)
	}
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	cases := map[string]string{
		"wrong key": createTestToken(t, validClaims(), []byte("other-key")),
		"expired":   createTestToken(t, expired, testSigningKey),
		"issuer":    createTestToken(t, wrongIssuer, testSigningKey),
		"garbage":   "not.a.jwt",
	}
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "copilot"}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runWith(t, []echo.MiddlewareFunc{JWTMiddleware(cfg)}, "Bearer "+tok)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_RejectsNoneAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("admin"))
	tok, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	_, err = runWith(t, []echo.MiddlewareFunc{JWTMiddleware(JWTConfig{SigningKey: testSigningKey})}, "Bearer "+tok)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestGuard(t *testing.T) {
	if chain := Guard(JWTConfig{}); chain != nil {
		t.Fatalf("expected open chain without signing key, got %d middlewares", len(chain))
	}
	cfg := JWTConfig{SigningKey: testSigningKey}

	clinician := createTestToken(t, validClaims("clinician"), testSigningKey)
	_, err := runWith(t, Guard(cfg, "ops"), "Bearer "+clinician)
	expectStatus(t, err, http.StatusForbidden)

	admin := createTestToken(t, validClaims("admin"), testSigningKey)
	if _, err := runWith(t, Guard(cfg, "ops"), "Bearer "+admin); err != nil {
		t.Errorf("admin should pass any role check: %v", err)
	}
	if _, err := runWith(t, Guard(cfg), "Bearer "+clinician); err != nil {
		t.Errorf("token-only guard should pass: %v", err)
	}
}
