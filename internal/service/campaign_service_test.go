package service

import (
	"context"
	"errors"
	"testing"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
)

func validCampaignInput(t *testing.T) CreateCampaignInput {
	t.Helper()
	return CreateCampaignInput{
		Title:       "Lancement jus d'ananas",
		Description: "Statut WhatsApp 24h",
		MediaType:   constants.MediaTypeImage,
		CostPerView: mustMoney(t, "0.50"),
		Budget:      mustMoney(t, "500.00"),
		TargetViews: 1000,
	}
}

func TestCampaignCreateValidatesInput(t *testing.T) {
	env := setupServiceTest(t)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000001", nil)
	broadcaster := env.createProfile(t, constants.RoleBroadcaster, "+22992000002", nil)

	if _, err := env.campaigns.Create(context.Background(), broadcaster, validCampaignInput(t)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("broadcaster create want ErrForbidden, got %v", err)
	}

	minAge, maxAge := 40, 20
	cases := []struct {
		name   string
		mutate func(in *CreateCampaignInput)
		want   error
	}{
		{name: "title", mutate: func(in *CreateCampaignInput) { in.Title = " " }, want: ErrCampaignTitleRequired},
		{name: "cpv", mutate: func(in *CreateCampaignInput) { in.CostPerView = mustMoney(t, "0") }, want: ErrCampaignInvalidCostPerView},
		{name: "budget", mutate: func(in *CreateCampaignInput) { in.Budget = mustMoney(t, "-1") }, want: ErrCampaignInvalidBudget},
		{name: "views", mutate: func(in *CreateCampaignInput) { in.TargetViews = 0 }, want: ErrCampaignInvalidTargetViews},
		{name: "age range", mutate: func(in *CreateCampaignInput) { in.TargetAgeMin, in.TargetAgeMax = &minAge, &maxAge }, want: ErrCampaignInvalidAgeRange},
		{name: "media", mutate: func(in *CreateCampaignInput) { in.MediaType = "gif" }, want: ErrCampaignInvalidMediaType},
		{name: "city", mutate: func(in *CreateCampaignInput) { in.TargetCities = []string{"Atlantis"} }, want: ErrInvalidLocation},
		{name: "rule", mutate: func(in *CreateCampaignInput) { in.AudienceRule = "age >" }, want: ErrAudienceRuleInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCampaignInput(t)
			tc.mutate(&input)
			if _, err := env.campaigns.Create(context.Background(), advertiser, input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	input := validCampaignInput(t)
	input.TargetCities = []string{"PORTO-NOVO", "cotonou"}
	campaign, err := env.campaigns.Create(context.Background(), advertiser, input)
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if campaign.Status != constants.CampaignStatusPending || campaign.AdminApproved {
		t.Fatalf("new campaign should be pending and unapproved, got %s/%v", campaign.Status, campaign.AdminApproved)
	}
	if len(campaign.TargetCities) != 2 || campaign.TargetCities[0] != "Porto-Novo" || campaign.TargetCities[1] != "Cotonou" {
		t.Fatalf("target cities should be canonical, got %v", campaign.TargetCities)
	}
}

func TestCampaignApproveDebitsBudget(t *testing.T) {
	env := setupServiceTest(t)
	admin := env.createProfile(t, constants.RoleAdmin, "+22992000010", nil)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000011", nil)
	env.fund(t, advertiser.ID, "800.00")

	campaign, err := env.campaigns.Create(context.Background(), advertiser, validCampaignInput(t))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	approved, err := env.campaigns.Approve(context.Background(), admin.ID, campaign.ID)
	if err != nil {
		t.Fatalf("approve campaign failed: %v", err)
	}
	if approved.Status != constants.CampaignStatusActive || !approved.AdminApproved || approved.StartDate == nil {
		t.Fatalf("unexpected approved campaign: %+v", approved)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Fatalf("approved_by want %d", admin.ID)
	}

	account := env.walletAccount(t, advertiser.ID)
	if account.Balance.String() != "300.00" || account.TotalSpent.String() != "500.00" {
		t.Fatalf("wallet want balance=300.00 spent=500.00, got %s/%s", account.Balance.String(), account.TotalSpent.String())
	}
	var payment models.WalletTransaction
	if err := env.db.Where("reference = ?", campaignPaymentReference(campaign.ID)).First(&payment).Error; err != nil {
		t.Fatalf("payment txn not found: %v", err)
	}
	if payment.Type != constants.WalletTxnTypePayment || payment.Amount.String() != "500.00" {
		t.Fatalf("unexpected payment txn: %+v", payment)
	}
	if got := env.countNotifications(t, advertiser.ID, constants.NotificationCampaignValidated); got != 1 {
		t.Fatalf("campaign_validated notifications want 1, got %d", got)
	}

	if _, err := env.campaigns.Approve(context.Background(), admin.ID, campaign.ID); !errors.Is(err, ErrCampaignStatusInvalid) {
		t.Fatalf("re-approve want ErrCampaignStatusInvalid, got %v", err)
	}
}

func TestCampaignApproveRollsBackOnInsufficientBalance(t *testing.T) {
	env := setupServiceTest(t)
	admin := env.createProfile(t, constants.RoleAdmin, "+22992000020", nil)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000021", nil)
	env.fund(t, advertiser.ID, "100.00")

	campaign, err := env.campaigns.Create(context.Background(), advertiser, validCampaignInput(t))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if _, err := env.campaigns.Approve(context.Background(), admin.ID, campaign.ID); !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("want ErrWalletInsufficientBalance, got %v", err)
	}

	reloaded, err := env.campaignRepo.GetByID(campaign.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	if reloaded.Status != constants.CampaignStatusPending || reloaded.AdminApproved {
		t.Fatalf("campaign should stay pending, got %s/%v", reloaded.Status, reloaded.AdminApproved)
	}
	if account := env.walletAccount(t, advertiser.ID); account.Balance.String() != "100.00" {
		t.Fatalf("balance should be untouched, got %s", account.Balance.String())
	}
}

func TestCampaignRejectRequiresReason(t *testing.T) {
	env := setupServiceTest(t)
	admin := env.createProfile(t, constants.RoleAdmin, "+22992000030", nil)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000031", nil)
	campaign, err := env.campaigns.Create(context.Background(), advertiser, validCampaignInput(t))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	if _, err := env.campaigns.Reject(context.Background(), admin.ID, campaign.ID, ""); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("empty reason want ErrRejectionReasonRequired, got %v", err)
	}
	reloaded, err := env.campaignRepo.GetByID(campaign.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	if reloaded.Status != constants.CampaignStatusPending {
		t.Fatalf("campaign should stay pending, got %s", reloaded.Status)
	}

	rejected, err := env.campaigns.Reject(context.Background(), admin.ID, campaign.ID, "Visuel non conforme")
	if err != nil {
		t.Fatalf("reject campaign failed: %v", err)
	}
	if rejected.Status != constants.CampaignStatusCancelled || rejected.RejectionReason != "Visuel non conforme" {
		t.Fatalf("unexpected rejected campaign: %+v", rejected)
	}
	if got := env.countNotifications(t, advertiser.ID, constants.NotificationCampaignRejected); got != 1 {
		t.Fatalf("campaign_rejected notifications want 1, got %d", got)
	}
}

func TestCampaignListAvailableFiltersByTargeting(t *testing.T) {
	env := setupServiceTest(t)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000040", nil)
	age := 25
	broadcaster := env.createProfile(t, constants.RoleBroadcaster, "+22992000041", func(p *models.Profile) {
		p.Gender = constants.GenderFemale
		p.Age = &age
	})

	open := env.createActiveCampaign(t, advertiser.ID, "0.50", "500.00", 1000)
	elsewhere := env.createActiveCampaign(t, advertiser.ID, "0.50", "500.00", 1000)
	if err := env.db.Model(elsewhere).Update("target_cities", `["Parakou"]`).Error; err != nil {
		t.Fatalf("update target cities failed: %v", err)
	}
	tooYoung := env.createActiveCampaign(t, advertiser.ID, "0.50", "500.00", 1000)
	minAge := 30
	if err := env.db.Model(tooYoung).Update("target_age_min", minAge).Error; err != nil {
		t.Fatalf("update target age failed: %v", err)
	}

	result, err := env.campaigns.ListAvailable(context.Background(), broadcaster, 1, 20, "")
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	if result.Page.Total != 1 || len(result.Items) != 1 || result.Items[0].ID != open.ID {
		t.Fatalf("only the untargeted campaign should match, got %+v", result.Items)
	}
	if result.Items[0].HasApplied || result.Items[0].RemainingViews != 1000 {
		t.Fatalf("unexpected availability: %+v", result.Items[0])
	}

	if _, err := env.applications.Apply(context.Background(), broadcaster, open.ID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	result, err = env.campaigns.ListAvailable(context.Background(), broadcaster, 1, 20, "")
	if err != nil {
		t.Fatalf("list available after apply failed: %v", err)
	}
	if len(result.Items) != 1 || !result.Items[0].HasApplied {
		t.Fatalf("has_applied should refresh after apply, got %+v", result.Items)
	}
}

func TestCampaignPauseResume(t *testing.T) {
	env := setupServiceTest(t)
	advertiser := env.createProfile(t, constants.RoleAdvertiser, "+22992000050", nil)
	other := env.createProfile(t, constants.RoleAdvertiser, "+22992000051", nil)
	campaign := env.createActiveCampaign(t, advertiser.ID, "0.50", "500.00", 1000)

	if _, err := env.campaigns.Pause(context.Background(), other, campaign.ID); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("foreign pause want ErrCampaignNotFound, got %v", err)
	}
	paused, err := env.campaigns.Pause(context.Background(), advertiser, campaign.ID)
	if err != nil || paused.Status != constants.CampaignStatusPaused {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := env.campaigns.Pause(context.Background(), advertiser, campaign.ID); !errors.Is(err, ErrCampaignStatusInvalid) {
		t.Fatalf("double pause want ErrCampaignStatusInvalid, got %v", err)
	}
	resumed, err := env.campaigns.Resume(context.Background(), advertiser, campaign.ID)
	if err != nil || resumed.Status != constants.CampaignStatusActive {
		t.Fatalf("resume failed: %v", err)
	}
}
