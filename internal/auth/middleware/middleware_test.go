package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndParseJWT(t *testing.T) {
	a := NewAuthService("test-secret", "admin", "")
	tok, err := a.IssueJWT("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "admin" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, _ := NewAuthService("secret-a", "admin", "").IssueJWT("admin", RoleAdmin)
	if _, err := NewAuthService("secret-b", "admin", "").Parse(tok); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("test-secret", "admin", string(hash))
	h := LoginHandler(a)

	do := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))
		return rec
	}

	if rec := do(`{"username":"admin","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d", rec.Code)
	}
	if rec := do(`{"username":"other","password":"s3cret"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong user: status %d", rec.Code)
	}

	rec := do(`{"username":"admin","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: status %d", rec.Code)
	}
	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	claims, err := a.Parse(res["access_token"])
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("role = %q", claims.Role)
	}
}

func TestJWTMiddlewareAttachesClaims(t *testing.T) {
	a := NewAuthService("test-secret", "admin", "")
	var sawAdmin bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAdmin = IsAdmin(r.Context())
	})
	h := JWTMiddleware(a)(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tools", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d", rec.Code)
	}

	tok, _ := a.IssueJWT("admin", RoleAdmin)
	req := httptest.NewRequest("GET", "/tools", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status %d", rec.Code)
	}
	if !sawAdmin {
		t.Fatal("claims not attached to request context")
	}
}
