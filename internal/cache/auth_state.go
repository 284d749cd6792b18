package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/adstatus-next/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// AccountAuthState 账号鉴权快照
// token_invalid_before 为 Unix 秒时间戳，0 表示未设置；profile_id 为 0 表示尚未选择角色
type AccountAuthState struct {
	AccountID          uint   `json:"account_id"`
	Status             string `json:"status"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	ProfileID          uint   `json:"profile_id"`
	Role               string `json:"role"`
	ProfileActive      bool   `json:"profile_active"`
	UpdatedAt          int64  `json:"updated_at"`
}

func accountAuthStateKey(accountID uint) string {
	return fmt.Sprintf("auth:account:%d", accountID)
}

// BuildAccountAuthState 从账号与档案构建鉴权快照
func BuildAccountAuthState(account *models.Account, profile *models.Profile) *AccountAuthState {
	if account == nil {
		return nil
	}
	state := &AccountAuthState{
		AccountID:    account.ID,
		Status:       account.Status,
		TokenVersion: account.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
	if account.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = account.TokenInvalidBefore.Unix()
	}
	if profile != nil {
		state.ProfileID = profile.ID
		state.Role = profile.Role
		state.ProfileActive = profile.IsActive
	}
	return state
}

// GetAccountAuthState 获取账号鉴权快照
func GetAccountAuthState(ctx context.Context, accountID uint) (*AccountAuthState, bool, error) {
	if accountID == 0 {
		return nil, false, nil
	}
	var state AccountAuthState
	hit, err := getJSON(ctx, accountAuthStateKey(accountID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAccountAuthState 写入账号鉴权快照
func SetAccountAuthState(ctx context.Context, state *AccountAuthState) error {
	if state == nil || state.AccountID == 0 {
		return nil
	}
	return setJSON(ctx, accountAuthStateKey(state.AccountID), state, authStateCacheTTL)
}

// DelAccountAuthState 删除账号鉴权快照（档案变更、停用、Token 失效时调用）
func DelAccountAuthState(ctx context.Context, accountID uint) error {
	if accountID == 0 {
		return nil
	}
	return del(ctx, accountAuthStateKey(accountID))
}
