package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adstatus-next/internal/authz"
	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int    `json:"status_code"`
	Msg        string `json:"msg"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow origin want echo got %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("max age want 600 got %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": shared.GetRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestAccountAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AccountAuthMiddleware(nil))
	r.GET("/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("envelope always uses http 200, got %d", w.Code)
	}
	if resp := decodeEnvelope(t, w); resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestIsIssuedAfterInvalidBeforeUnix(t *testing.T) {
	if !isIssuedAfterInvalidBeforeUnix(nil, 0) {
		t.Fatalf("zero invalid-before should always pass")
	}
	if isIssuedAfterInvalidBeforeUnix(nil, 100) {
		t.Fatalf("missing iat should fail when invalid-before is set")
	}
}

func newTestAuthz(t *testing.T) *authz.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return svc
}

func TestRoleRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestAuthz(t)

	build := func(role string) *gin.Engine {
		r := gin.New()
		api := r.Group("/api/v1")
		api.Use(func(c *gin.Context) {
			c.Set(shared.ProfileKey, &models.Profile{ID: 7, Role: role, IsActive: true})
			c.Next()
		})
		api.Use(RoleRBACMiddleware(svc))
		api.POST("/advertiser/campaigns", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) })
		api.POST("/admin/proofs/:id/approve", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) })
		return r
	}

	cases := []struct {
		name   string
		role   string
		path   string
		status int
	}{
		{name: "advertiser creates campaign", role: constants.RoleAdvertiser, path: "/api/v1/advertiser/campaigns", status: 0},
		{name: "broadcaster cannot create campaign", role: constants.RoleBroadcaster, path: "/api/v1/advertiser/campaigns", status: 403},
		{name: "admin approves proof", role: constants.RoleAdmin, path: "/api/v1/admin/proofs/3/approve", status: 0},
		{name: "advertiser cannot approve proof", role: constants.RoleAdvertiser, path: "/api/v1/admin/proofs/3/approve", status: 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			build(tc.role).ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.path, nil))
			if resp := decodeEnvelope(t, w); resp.StatusCode != tc.status {
				t.Fatalf("status_code want %d got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestRoleRBACMiddlewareWithoutProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RoleRBACMiddleware(newTestAuthz(t)))
	r.GET("/api/v1/admin/campaigns", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/campaigns", nil))
	if resp := decodeEnvelope(t, w); resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestDerivePermissionModule(t *testing.T) {
	cases := map[string]string{
		"/advertiser/campaigns/:id/pause": "advertiser.campaigns",
		"/admin/wallet/reconcile":         "admin.wallet",
		"/profile":                        "",
		"/auth/otp/send":                  "",
	}
	for object, want := range cases {
		if got := derivePermissionModule(object); got != want {
			t.Fatalf("%s: want %q got %q", object, want, got)
		}
	}
}
