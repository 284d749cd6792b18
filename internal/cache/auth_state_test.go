package cache

import (
	"context"
	"testing"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/models"
)

func TestDisabledRedisIsMiss(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("disabled init should not fail: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("redis should be disabled")
	}
	ctx := context.Background()
	if err := SetAccountAuthState(ctx, &AccountAuthState{AccountID: 9}); err != nil {
		t.Fatalf("set on disabled cache should be a no-op: %v", err)
	}
	state, hit, err := GetAccountAuthState(ctx, 9)
	if err != nil || hit || state != nil {
		t.Fatalf("disabled cache should miss, got %+v %v %v", state, hit, err)
	}
	if err := DelAccountAuthState(ctx, 9); err != nil {
		t.Fatalf("del on disabled cache should be a no-op: %v", err)
	}
}

func TestBuildAccountAuthState(t *testing.T) {
	invalidBefore := time.Unix(1700000000, 0)
	account := &models.Account{Status: "active", TokenVersion: 3, TokenInvalidBefore: &invalidBefore}
	account.ID = 5
	profile := &models.Profile{Role: "advertiser", IsActive: true}
	profile.ID = 11

	state := BuildAccountAuthState(account, profile)
	if state.AccountID != 5 || state.TokenVersion != 3 || state.TokenInvalidBefore != 1700000000 {
		t.Fatalf("unexpected account fields: %+v", state)
	}
	if state.ProfileID != 11 || state.Role != "advertiser" || !state.ProfileActive {
		t.Fatalf("unexpected profile fields: %+v", state)
	}
	if BuildAccountAuthState(nil, profile) != nil {
		t.Fatalf("nil account should build nil state")
	}
	if namespaced(" auth:account:5 ") != prefix+":auth:account:5" {
		t.Fatalf("unexpected key: %s", namespaced(" auth:account:5 "))
	}
}
