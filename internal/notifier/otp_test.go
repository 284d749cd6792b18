package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adstatus-next/internal/config"
)

func TestWhatsAppSenderPostsMessage(t *testing.T) {
	var got whatsAppMessage
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sendSessionMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(server.URL+"/", "secret")
	if err := sender.SendOTP(context.Background(), "+22997000000", "code 123456"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got.Phone != "22997000000" || got.Message != "code 123456" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %s", auth)
	}
}

func TestWhatsAppSenderReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if err := NewWhatsAppSender(server.URL, "").SendOTP(context.Background(), "+22990000000", "x"); err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestNewOTPSenderFallsBackToLog(t *testing.T) {
	if _, ok := NewOTPSender(config.OTPConfig{Gateway: "whatsapp"}).(LogOTPSender); !ok {
		t.Fatalf("gateway without url should fall back to log sender")
	}
	if _, ok := NewOTPSender(config.OTPConfig{Gateway: "whatsapp", GatewayURL: "http://gw"}).(*WhatsAppSender); !ok {
		t.Fatalf("expected whatsapp sender")
	}
}

func TestSafeCallRecoversPanic(t *testing.T) {
	err := SafeCall("test", func() error { panic("boom") })
	if err != nil {
		t.Fatalf("panic should be swallowed, got %v", err)
	}
	want := errors.New("plain")
	if err := SafeCall("test", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("error should pass through, got %v", err)
	}
}
