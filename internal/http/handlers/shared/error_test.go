package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

func serveError(t *testing.T, err error) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Accept-Language", "en-US")
	c.Set(RequestIDKey, "req-1")

	RespondServiceError(c, err)

	var resp struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.Data["request_id"] != "req-1" {
		t.Fatalf("error data should carry request id, got %v", resp.Data)
	}
	return resp.StatusCode, resp.Msg
}

func TestRespondServiceErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: service.ErrApplicationDuplicate, code: response.CodeConflict},
		{err: fmt.Errorf("approve: %w", service.ErrEstimatedViewsOutOfRange), code: response.CodeBadRequest},
		{err: service.ErrRejectionReasonRequired, code: response.CodeBadRequest},
		{err: service.ErrProfileNotFound, code: response.CodeNotFound},
		{err: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest},
		{err: errors.New("db down"), code: response.CodeInternal},
	}
	for _, tc := range cases {
		code, msg := serveError(t, tc.err)
		if code != tc.code {
			t.Fatalf("%v: code want %d got %d", tc.err, tc.code, code)
		}
		if msg == "" {
			t.Fatalf("%v: message should be localized", tc.err)
		}
	}
}

func TestRespondServiceErrorUsesAppError(t *testing.T) {
	wrapped := fmt.Errorf("bind: %w", response.WrapError(response.CodeTooManyRequests, "error.otp_too_frequent", "", errors.New("slow down")))
	code, _ := serveError(t, wrapped)
	if code != response.CodeTooManyRequests {
		t.Fatalf("app error code want 429 got %d", code)
	}
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 45)
	if p.TotalPage != 3 || !p.HasNext || !p.HasPrevious {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	last := BuildPagination(3, 20, 45)
	if last.HasNext {
		t.Fatalf("last page should not have next: %+v", last)
	}
	page, size := NormalizePagination(0, 500)
	if page != 1 || size != 100 {
		t.Fatalf("normalize want 1/100 got %d/%d", page, size)
	}
}
