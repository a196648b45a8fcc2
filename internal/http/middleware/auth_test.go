package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestRequireUser_BearerToken(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer user-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "user-42" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestRequireUser_BearerSchemeIsCaseInsensitive(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "bearer user-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "user-42" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestRequireUser_HeaderFallback(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "header-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "header-user" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestRequireUser_MissingIdentityIs401(t *testing.T) {
	r := authTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unauthorized") {
		t.Fatalf("body = %q, want unauthorized code", w.Body.String())
	}
}

func TestRequireUser_OversizedIdentityRejected(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", strings.Repeat("x", maxUserIDLen+1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
}

func TestBearerToken_NonBearerSchemeIgnored(t *testing.T) {
	if got := bearerToken("Basic dXNlcjpwYXNz"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := bearerToken(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := bearerToken("Bearer   spaced-id  "); got != "spaced-id" {
		t.Fatalf("got %q, want trimmed token", got)
	}
}
