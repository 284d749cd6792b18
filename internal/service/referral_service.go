package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const referralCodePrefix = "AS"

// ReferralService 推荐码与推荐奖励
type ReferralService struct {
	referralRepo  repository.ReferralRepository
	walletService *WalletService
	node          *snowflake.Node
	bonus         models.Money
}

// ReferralBonusResult 推荐奖励发放结果
type ReferralBonusResult struct {
	ReferrerID uint
	Amount     models.Money
}

// NewReferralService 创建推荐服务
func NewReferralService(referralRepo repository.ReferralRepository, walletService *WalletService, cfg config.CampaignConfig) (*ReferralService, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node: %w", err)
	}
	bonus, err := models.ParseMoney(cfg.ReferralBonus)
	if err != nil {
		return nil, fmt.Errorf("parse referral bonus: %w", err)
	}
	return &ReferralService{
		referralRepo:  referralRepo,
		walletService: walletService,
		node:          node,
		bonus:         bonus,
	}, nil
}

// NewCode 生成唯一推荐码
func (s *ReferralService) NewCode() string {
	return referralCodePrefix + s.node.Generate().Base58()
}

// BindInTx 在事务内写入推荐关系
func (s *ReferralService) BindInTx(tx *gorm.DB, referrer *models.Profile, referredID uint) error {
	if referrer == nil || referredID == 0 || referrer.ID == referredID {
		return nil
	}
	return s.referralRepo.WithTx(tx).Create(&models.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   referredID,
		ReferralCode: referrer.ReferralCode,
		CreatedAt:    time.Now(),
	})
}

// CountReferrals 推荐人数
func (s *ReferralService) CountReferrals(profileID uint) (int64, error) {
	return s.referralRepo.CountByReferrer(profileID)
}

// PayFirstProofBonusTx 被推荐播主首次凭证通过时向推荐人发放奖励，未配置奖励或已发放时返回 nil
func (s *ReferralService) PayFirstProofBonusTx(tx *gorm.DB, broadcasterID uint) (*ReferralBonusResult, error) {
	if s == nil || !s.bonus.IsPositive() || broadcasterID == 0 {
		return nil, nil
	}
	repo := s.referralRepo.WithTx(tx)
	referral, err := repo.GetByReferredIDForUpdate(broadcasterID)
	if err != nil {
		return nil, err
	}
	if referral == nil || referral.BonusPaidAt != nil {
		return nil, nil
	}
	if _, _, err := s.walletService.CreditInTx(tx, WalletCreditInput{
		ProfileID:   referral.ReferrerID,
		Amount:      s.bonus,
		TxnType:     constants.WalletTxnTypeReferralBonus,
		Reference:   referralBonusReference(referral.ID),
		Description: strings.TrimSpace(fmt.Sprintf("Bonus de parrainage (%s)", referral.ReferralCode)),
	}); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := repo.UpdateFields(referral.ID, map[string]interface{}{
		"bonus_amount":  s.bonus,
		"bonus_paid_at": now,
	}); err != nil {
		return nil, err
	}
	logger.Infow("referral_bonus_paid",
		"referral_id", referral.ID,
		"referrer_id", referral.ReferrerID,
		"referred_id", broadcasterID,
		"amount", s.bonus.String(),
	)
	return &ReferralBonusResult{ReferrerID: referral.ReferrerID, Amount: s.bonus}, nil
}
