package service

import (
	"testing"

	"github.com/adstatus-next/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func intPtr(v int) *int {
	return &v
}

func targetingProfile(gender string, age *int, city string) *models.Profile {
	return &models.Profile{ID: 1, Gender: gender, Age: age, City: city, Language: "fr"}
}

func TestMatchesTargetingGenderMismatch(t *testing.T) {
	profile := targetingProfile("female", intPtr(30), "Cotonou")
	campaign := &models.Campaign{TargetGender: "male"}
	require.False(t, MatchesTargeting(profile, campaign))
	require.False(t, MatchesTargeting(profile, campaign))
}

func TestMatchesTargetingUnconstrainedMatchesEveryone(t *testing.T) {
	campaign := &models.Campaign{}
	require.True(t, MatchesTargeting(targetingProfile("female", intPtr(30), "Cotonou"), campaign))
	require.True(t, MatchesTargeting(targetingProfile("", nil, ""), campaign))
}

func TestMatchesTargetingAgeBounds(t *testing.T) {
	campaign := &models.Campaign{TargetAgeMin: intPtr(18), TargetAgeMax: intPtr(25)}
	require.True(t, MatchesTargeting(targetingProfile("male", intPtr(18), "Parakou"), campaign))
	require.True(t, MatchesTargeting(targetingProfile("male", intPtr(25), "Parakou"), campaign))
	require.False(t, MatchesTargeting(targetingProfile("male", intPtr(26), "Parakou"), campaign))
	require.False(t, MatchesTargeting(targetingProfile("male", intPtr(17), "Parakou"), campaign))
	require.True(t, MatchesTargeting(targetingProfile("male", nil, "Parakou"), campaign), "missing age is not filtered")

	onlyMin := &models.Campaign{TargetAgeMin: intPtr(40)}
	require.True(t, MatchesTargeting(targetingProfile("male", intPtr(70), ""), onlyMin))
}

func TestMatchesTargetingCities(t *testing.T) {
	campaign := &models.Campaign{TargetCities: datatypes.JSONSlice[string]{"Cotonou", "Porto-Novo"}}
	require.True(t, MatchesTargeting(targetingProfile("female", nil, "cotonou"), campaign))
	require.False(t, MatchesTargeting(targetingProfile("female", nil, "Parakou"), campaign))
	require.False(t, MatchesTargeting(targetingProfile("female", nil, ""), campaign))
}

func TestTargetingServiceAudienceRule(t *testing.T) {
	evaluator, err := NewAudienceEvaluator()
	require.NoError(t, err)
	svc := NewTargetingService(evaluator)

	require.NoError(t, svc.ValidateRule(`"sport" in interests && has_age && age >= 20`))
	require.ErrorIs(t, svc.ValidateRule(`age + 1`), ErrAudienceRuleInvalid)
	require.ErrorIs(t, svc.ValidateRule(`unknown_var == 1`), ErrAudienceRuleInvalid)

	campaign := &models.Campaign{ID: 9, AudienceRule: `"sport" in interests && city == "Cotonou"`}
	fan := targetingProfile("male", intPtr(22), "Cotonou")
	fan.Interests = datatypes.JSONSlice[string]{"Sport", "music"}
	require.True(t, svc.Matches(fan, campaign))

	other := targetingProfile("male", intPtr(22), "Cotonou")
	other.Interests = datatypes.JSONSlice[string]{"cuisine"}
	require.False(t, svc.Matches(other, campaign))

	filtered := svc.FilterCampaigns(fan, []models.Campaign{*campaign, {ID: 10, TargetGender: "female"}, {ID: 11}})
	require.Len(t, filtered, 2)
	require.Equal(t, uint(9), filtered[0].ID)
	require.Equal(t, uint(11), filtered[1].ID)
}
