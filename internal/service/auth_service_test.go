package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"
)

type captureOTPSender struct {
	mu       sync.Mutex
	messages map[string]string
}

func (s *captureOTPSender) SendOTP(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		s.messages = make(map[string]string)
	}
	s.messages[phone] = message
	return nil
}

var otpCodePattern = regexp.MustCompile(`\d{6}`)

func (s *captureOTPSender) code(t *testing.T, phone string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	code := otpCodePattern.FindString(s.messages[phone])
	if code == "" {
		t.Fatalf("no otp captured for %s: %q", phone, s.messages[phone])
	}
	return code
}

func newTestAuthService(t *testing.T, env *serviceTestEnv) (*AuthService, *captureOTPSender) {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 2},
		OTP: config.OTPConfig{
			Length:              6,
			ExpireMinutes:       5,
			SendIntervalSeconds: 60,
			MaxAttempts:         3,
			DefaultCountryCode:  "229",
		},
	}
	sender := &captureOTPSender{}
	svc := NewAuthService(cfg,
		repository.NewAccountRepository(env.db),
		env.profileRepo,
		repository.NewOTPCodeRepository(env.db),
		sender,
	)
	return svc, sender
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "+229 97 00 00 01", want: "+22997000001"},
		{raw: "0022997000001", want: "+22997000001"},
		{raw: "97-00-00-01", want: "+22997000001"},
		{raw: "", wantErr: true},
		{raw: "97a00", wantErr: true},
		{raw: "+1234", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.raw, "229")
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Fatalf("%q want ErrInvalidPhone, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q want %s, got %s (%v)", tc.raw, tc.want, got, err)
		}
	}
}

func TestAuthOTPLoginFlow(t *testing.T) {
	env := setupServiceTest(t)
	auth, sender := newTestAuthService(t, env)
	ctx := context.Background()

	if err := auth.SendOTP(ctx, "97 00 00 01", "fr-FR"); err != nil {
		t.Fatalf("send otp failed: %v", err)
	}
	if err := auth.SendOTP(ctx, "97 00 00 01", "fr-FR"); !errors.Is(err, ErrOTPTooFrequent) {
		t.Fatalf("immediate resend want ErrOTPTooFrequent, got %v", err)
	}
	code := sender.code(t, "+22997000001")

	if _, err := auth.VerifyOTP(ctx, "+22997000001", "000000x"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("wrong code want ErrOTPInvalid, got %v", err)
	}

	result, err := auth.VerifyOTP(ctx, "+22997000001", code)
	if err != nil {
		t.Fatalf("verify otp failed: %v", err)
	}
	if result.Account == nil || result.Account.ID == 0 || result.Token == "" {
		t.Fatalf("login should create account and token: %+v", result)
	}
	if !result.ProfileRequired || result.Profile != nil {
		t.Fatalf("first login should require profile")
	}
	if _, err := auth.VerifyOTP(ctx, "+22997000001", code); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("reused code want ErrOTPInvalid, got %v", err)
	}

	claims, err := auth.ParseJWT(result.Token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	account, err := auth.ResolveAccount(ctx, claims)
	if err != nil || account.ID != result.Account.ID {
		t.Fatalf("resolve account failed: %v", err)
	}

	if err := auth.Logout(ctx, account.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := auth.ResolveAccount(ctx, claims); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("token after logout want ErrTokenRevoked, got %v", err)
	}
}

func TestAuthVerifyOTPReturnsExistingProfile(t *testing.T) {
	env := setupServiceTest(t)
	auth, sender := newTestAuthService(t, env)
	ctx := context.Background()
	profile := env.createProfile(t, constants.RoleBroadcaster, "+22997000002", nil)

	if err := auth.SendOTP(ctx, "+22997000002", "en-US"); err != nil {
		t.Fatalf("send otp failed: %v", err)
	}
	result, err := auth.VerifyOTP(ctx, "+22997000002", sender.code(t, "+22997000002"))
	if err != nil {
		t.Fatalf("verify otp failed: %v", err)
	}
	if result.ProfileRequired || result.Profile == nil || result.Profile.ID != profile.ID {
		t.Fatalf("login should return existing profile, got %+v", result.Profile)
	}
}

func TestAuthVerifyOTPRefusesInactiveProfile(t *testing.T) {
	env := setupServiceTest(t)
	auth, sender := newTestAuthService(t, env)
	ctx := context.Background()
	profile := env.createProfile(t, constants.RoleAdvertiser, "+22997000003", nil)
	if err := env.profileRepo.UpdateFields(profile.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate profile failed: %v", err)
	}

	if err := auth.SendOTP(ctx, "+22997000003", ""); err != nil {
		t.Fatalf("send otp failed: %v", err)
	}
	if _, err := auth.VerifyOTP(ctx, "+22997000003", sender.code(t, "+22997000003")); !errors.Is(err, ErrProfileInactive) {
		t.Fatalf("inactive profile want ErrProfileInactive, got %v", err)
	}
}

func TestAuthParseJWTRejectsForeignSecret(t *testing.T) {
	env := setupServiceTest(t)
	auth, _ := newTestAuthService(t, env)
	other := NewAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "other", ExpireHours: 1}}, nil, nil, nil, nil)

	account := env.createProfile(t, constants.RoleBroadcaster, "+22997000004", nil)
	token, _, err := other.GenerateJWT(&models.Account{ID: account.AccountID})
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	if _, err := auth.ParseJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token want ErrInvalidToken, got %v", err)
	}
}
