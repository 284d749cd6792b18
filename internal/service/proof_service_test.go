package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
)

type proofFixture struct {
	admin       *models.Profile
	advertiser  *models.Profile
	broadcaster *models.Profile
	campaign    *models.Campaign
	application *models.CampaignApplication
	proof       *models.Proof
}

func newProofFixture(t *testing.T, env *serviceTestEnv, cpv, budget string, targetViews int) *proofFixture {
	t.Helper()
	f := &proofFixture{
		admin:       env.createProfile(t, constants.RoleAdmin, "+22990000001", nil),
		advertiser:  env.createProfile(t, constants.RoleAdvertiser, "+22990000002", nil),
		broadcaster: env.createProfile(t, constants.RoleBroadcaster, "+22990000003", nil),
	}
	f.campaign = env.createActiveCampaign(t, f.advertiser.ID, cpv, budget, targetViews)
	f.application = env.createAcceptedApplication(t, f.campaign.ID, f.broadcaster.ID, time.Now().Add(-2*time.Hour))
	proof, err := env.proofs.SubmitWithURL(context.Background(), f.broadcaster, f.application.ID, "/uploads/proofs/proof_1.png")
	if err != nil {
		t.Fatalf("submit proof failed: %v", err)
	}
	f.proof = proof
	return f
}

func TestProofSubmitMarksApplicationAndNotifiesAdmins(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)

	if f.proof.Status != constants.ProofStatusPending {
		t.Fatalf("proof status want pending, got %s", f.proof.Status)
	}
	if f.proof.EstimatedViews != 100 {
		t.Fatalf("default estimated views want 100, got %d", f.proof.EstimatedViews)
	}
	application, err := env.applicationRepo.GetByID(f.application.ID)
	if err != nil || application == nil {
		t.Fatalf("reload application failed: %v", err)
	}
	if !application.ProofUploaded {
		t.Fatalf("application should be marked proof_uploaded")
	}
	if got := env.countNotifications(t, f.admin.ID, constants.NotificationProofSubmitted); got != 1 {
		t.Fatalf("admin proof_submitted notifications want 1, got %d", got)
	}

	_, err = env.proofs.SubmitWithURL(context.Background(), f.broadcaster, f.application.ID, "/uploads/proofs/again.png")
	if !errors.Is(err, ErrProofAlreadyUploaded) {
		t.Fatalf("second submit want ErrProofAlreadyUploaded, got %v", err)
	}
}

func TestProofSubmitRequiresAcceptedApplication(t *testing.T) {
	env := setupServiceTest(t)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22990000010", nil)
	broadcaster := env.createProfile(t, constants.RoleBroadcaster, "+22990000011", nil)
	campaign := env.createActiveCampaign(t, advertiser.ID, "0.50", "500.00", 1000)
	application := &models.CampaignApplication{
		CampaignID:    campaign.ID,
		BroadcasterID: broadcaster.ID,
		Status:        constants.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	if err := env.db.Create(application).Error; err != nil {
		t.Fatalf("create application failed: %v", err)
	}

	_, err := env.proofs.SubmitWithURL(context.Background(), broadcaster, application.ID, "/uploads/proofs/p.png")
	if !errors.Is(err, ErrApplicationStatusInvalid) {
		t.Fatalf("want ErrApplicationStatusInvalid, got %v", err)
	}
	other := env.createProfile(t, constants.RoleBroadcaster, "+22990000012", nil)
	_, err = env.proofs.SubmitWithURL(context.Background(), other, application.ID, "/uploads/proofs/p.png")
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("foreign broadcaster want ErrApplicationNotFound, got %v", err)
	}
}

func TestProofApproveSettlesEarnings(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)

	settled, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 120)
	if err != nil {
		t.Fatalf("approve proof failed: %v", err)
	}
	if settled.Status != constants.ProofStatusApproved {
		t.Fatalf("proof status want approved, got %s", settled.Status)
	}
	if settled.Earnings.String() != "60.00" {
		t.Fatalf("earnings want 60.00, got %s", settled.Earnings.String())
	}

	application, err := env.applicationRepo.GetByID(f.application.ID)
	if err != nil || application == nil {
		t.Fatalf("reload application failed: %v", err)
	}
	if application.Status != constants.ApplicationStatusCompleted || application.CompletedAt == nil {
		t.Fatalf("application want completed with completed_at, got %s", application.Status)
	}

	var earnings []models.WalletTransaction
	if err := env.db.Where("profile_id = ? AND type = ?", f.broadcaster.ID, constants.WalletTxnTypeEarning).Find(&earnings).Error; err != nil {
		t.Fatalf("query earning txns failed: %v", err)
	}
	if len(earnings) != 1 {
		t.Fatalf("earning txns want 1, got %d", len(earnings))
	}
	if earnings[0].Reference != proofEarningReference(f.proof.ID) {
		t.Fatalf("unexpected earning reference: %s", earnings[0].Reference)
	}
	if earnings[0].Amount.String() != "60.00" || earnings[0].ProofID == nil || *earnings[0].ProofID != f.proof.ID {
		t.Fatalf("unexpected earning txn: %+v", earnings[0])
	}

	account := env.walletAccount(t, f.broadcaster.ID)
	if account.Balance.String() != "60.00" || account.TotalEarned.String() != "60.00" {
		t.Fatalf("wallet want balance=60.00 total_earned=60.00, got %s/%s", account.Balance.String(), account.TotalEarned.String())
	}

	campaign, err := env.campaignRepo.GetByID(f.campaign.ID)
	if err != nil || campaign == nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	if campaign.CurrentViews != 120 || campaign.TotalPaid.String() != "60.00" {
		t.Fatalf("campaign progress want 120 views / 60.00 paid, got %d / %s", campaign.CurrentViews, campaign.TotalPaid.String())
	}
	if campaign.BudgetExceeded {
		t.Fatalf("budget should not be exceeded")
	}
	if got := env.countNotifications(t, f.broadcaster.ID, constants.NotificationProofValidated); got != 1 {
		t.Fatalf("proof_validated notifications want 1, got %d", got)
	}
}

func TestProofApproveTwiceIsRefused(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)

	if _, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 120); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	_, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 300)
	if !errors.Is(err, ErrProofAlreadyValidated) {
		t.Fatalf("second approve want ErrProofAlreadyValidated, got %v", err)
	}
	_, err = env.proofs.Reject(context.Background(), f.admin.ID, f.proof.ID, "trop tard")
	if !errors.Is(err, ErrProofAlreadyValidated) {
		t.Fatalf("reject after approve want ErrProofAlreadyValidated, got %v", err)
	}

	var count int64
	if err := env.db.Model(&models.WalletTransaction{}).
		Where("profile_id = ? AND type = ?", f.broadcaster.ID, constants.WalletTxnTypeEarning).
		Count(&count).Error; err != nil {
		t.Fatalf("count earning txns failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("earning txns want 1, got %d", count)
	}
	if account := env.walletAccount(t, f.broadcaster.ID); account.Balance.String() != "60.00" {
		t.Fatalf("balance want 60.00, got %s", account.Balance.String())
	}
}

func TestProofApproveRejectsViewsOutOfRange(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)

	for _, views := range []int{0, -5, 1001} {
		if _, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, views); !errors.Is(err, ErrEstimatedViewsOutOfRange) {
			t.Fatalf("views=%d want ErrEstimatedViewsOutOfRange, got %v", views, err)
		}
	}
	proof, err := env.proofRepo.GetByID(f.proof.ID)
	if err != nil || proof == nil {
		t.Fatalf("reload proof failed: %v", err)
	}
	if proof.Status != constants.ProofStatusPending {
		t.Fatalf("proof should stay pending, got %s", proof.Status)
	}

	if _, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 1000); err != nil {
		t.Fatalf("upper bound views should be accepted: %v", err)
	}
}

func TestProofRejectRequiresReason(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)

	if _, err := env.proofs.Reject(context.Background(), f.admin.ID, f.proof.ID, "   "); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("blank reason want ErrRejectionReasonRequired, got %v", err)
	}
	proof, err := env.proofRepo.GetByID(f.proof.ID)
	if err != nil || proof == nil {
		t.Fatalf("reload proof failed: %v", err)
	}
	if proof.Status != constants.ProofStatusPending || proof.RejectionReason != "" {
		t.Fatalf("proof should be untouched, got status=%s reason=%q", proof.Status, proof.RejectionReason)
	}

	rejected, err := env.proofs.Reject(context.Background(), f.admin.ID, f.proof.ID, "Capture illisible")
	if err != nil {
		t.Fatalf("reject proof failed: %v", err)
	}
	if rejected.Status != constants.ProofStatusRejected || rejected.RejectionReason != "Capture illisible" {
		t.Fatalf("unexpected rejected proof: %+v", rejected)
	}
	application, err := env.applicationRepo.GetByID(f.application.ID)
	if err != nil || application == nil {
		t.Fatalf("reload application failed: %v", err)
	}
	if application.Status != constants.ApplicationStatusAccepted {
		t.Fatalf("application should stay accepted, got %s", application.Status)
	}
	if got := env.countNotifications(t, f.broadcaster.ID, constants.NotificationProofRejected); got != 1 {
		t.Fatalf("proof_rejected notifications want 1, got %d", got)
	}
	if account := env.walletAccount(t, f.broadcaster.ID); !account.Balance.IsZero() {
		t.Fatalf("rejected proof must not credit wallet, got %s", account.Balance.String())
	}
}

func TestProofApproveFlagsBudgetAndCompletesCampaign(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "1.00", "50.00", 100)

	settled, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 150)
	if err != nil {
		t.Fatalf("approve proof failed: %v", err)
	}
	if settled.Earnings.String() != "150.00" {
		t.Fatalf("earnings want 150.00, got %s", settled.Earnings.String())
	}
	campaign, err := env.campaignRepo.GetByID(f.campaign.ID)
	if err != nil || campaign == nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	if !campaign.BudgetExceeded {
		t.Fatalf("campaign should be flagged budget_exceeded")
	}
	if campaign.CurrentViews != 100 {
		t.Fatalf("current views should be capped at target, got %d", campaign.CurrentViews)
	}
	if campaign.Status != constants.CampaignStatusCompleted {
		t.Fatalf("campaign want completed, got %s", campaign.Status)
	}
	if campaign.TotalPaid.String() != "150.00" {
		t.Fatalf("total paid want 150.00, got %s", campaign.TotalPaid.String())
	}
}

func TestProofApprovePaysReferralBonusOnce(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)
	referrer := env.createProfile(t, constants.RoleBroadcaster, "+22990000020", nil)
	if err := env.referralRepo.Create(&models.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   f.broadcaster.ID,
		ReferralCode: referrer.ReferralCode,
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	if _, err := env.proofs.Approve(context.Background(), f.admin.ID, f.proof.ID, 10); err != nil {
		t.Fatalf("approve first proof failed: %v", err)
	}

	second := env.createActiveCampaign(t, f.advertiser.ID, "0.50", "500.00", 1000)
	application := env.createAcceptedApplication(t, second.ID, f.broadcaster.ID, time.Now().Add(-time.Hour))
	proof, err := env.proofs.SubmitWithURL(context.Background(), f.broadcaster, application.ID, "/uploads/proofs/second.png")
	if err != nil {
		t.Fatalf("submit second proof failed: %v", err)
	}
	if _, err := env.proofs.Approve(context.Background(), f.admin.ID, proof.ID, 10); err != nil {
		t.Fatalf("approve second proof failed: %v", err)
	}

	account := env.walletAccount(t, referrer.ID)
	if account.Balance.String() != "500.00" {
		t.Fatalf("referrer balance want 500.00, got %s", account.Balance.String())
	}
	if account.TotalEarned.IsPositive() || account.TotalReferral.String() != "500.00" {
		t.Fatalf("bonus belongs to total_referral, got earned=%s referral=%s", account.TotalEarned, account.TotalReferral)
	}
	mismatches, err := env.wallet.Reconcile()
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("ledger should reconcile after referral bonus, got %+v", mismatches)
	}
	var count int64
	if err := env.db.Model(&models.WalletTransaction{}).
		Where("profile_id = ? AND type = ?", referrer.ID, constants.WalletTxnTypeReferralBonus).
		Count(&count).Error; err != nil {
		t.Fatalf("count bonus txns failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("referral bonus txns want 1, got %d", count)
	}
	if got := env.countNotifications(t, referrer.ID, constants.NotificationReferralBonus); got != 1 {
		t.Fatalf("referral_bonus notifications want 1, got %d", got)
	}
}

func TestProofGetScopesToOwner(t *testing.T) {
	env := setupServiceTest(t)
	f := newProofFixture(t, env, "0.50", "500.00", 1000)
	other := env.createProfile(t, constants.RoleBroadcaster, "+22990000030", nil)

	if _, err := env.proofs.Get(f.broadcaster, f.proof.ID); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if _, err := env.proofs.Get(f.admin, f.proof.ID); err != nil {
		t.Fatalf("admin get failed: %v", err)
	}
	if _, err := env.proofs.Get(other, f.proof.ID); !errors.Is(err, ErrProofNotFound) {
		t.Fatalf("foreign broadcaster want ErrProofNotFound, got %v", err)
	}

	result, err := env.proofs.List(context.Background(), ProofListInput{Status: constants.ProofStatusPending})
	if err != nil {
		t.Fatalf("list proofs failed: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Fatalf("pending proofs want 1, got total=%d", result.Total)
	}
}
