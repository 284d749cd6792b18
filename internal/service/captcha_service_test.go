package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
)

func TestCaptchaDisabledAlwaysPasses(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Provider: "unknown"})
	if svc.Enabled() {
		t.Fatalf("unknown provider should disable captcha")
	}
	if err := svc.Verify(CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha should pass, got %v", err)
	}
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaConfigInvalid) {
		t.Fatalf("disabled generate want ErrCaptchaConfigInvalid, got %v", err)
	}
}

func TestCaptchaImageChallengeVerify(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Provider: " Image ", Length: 4})
	if !svc.Enabled() {
		t.Fatalf("image provider should enable captcha")
	}
	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || !strings.HasPrefix(challenge.ImageBase64, "data:image/png;base64,") {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
	if challenge.ExpireSeconds != defaultCaptchaExpireSeconds {
		t.Fatalf("expire seconds want %d, got %d", defaultCaptchaExpireSeconds, challenge.ExpireSeconds)
	}

	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("empty code want ErrCaptchaRequired, got %v", err)
	}

	answer := svc.ensureImageStore().Get(challenge.CaptchaID, false)
	if len(answer) != 4 {
		t.Fatalf("answer length want 4, got %q", answer)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: strings.ToLower(answer)}); err != nil {
		t.Fatalf("case insensitive answer should pass, got %v", err)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("reused challenge want ErrCaptchaInvalid, got %v", err)
	}
	if svc.cfg.Provider != constants.CaptchaProviderImage {
		t.Fatalf("provider should be normalized, got %q", svc.cfg.Provider)
	}
}
