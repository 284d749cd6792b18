package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"

	"github.com/google/cel-go/cel"
)

// MatchesTargeting 判断播主档案是否满足活动定向条件
// 活动未设置的条件对所有人放行；档案缺少年龄时不做年龄过滤。
func MatchesTargeting(profile *models.Profile, campaign *models.Campaign) bool {
	if profile == nil || campaign == nil {
		return false
	}

	if gender := strings.TrimSpace(campaign.TargetGender); gender != "" {
		if !strings.EqualFold(gender, strings.TrimSpace(profile.Gender)) {
			return false
		}
	}

	if profile.Age != nil {
		age := *profile.Age
		if campaign.TargetAgeMin != nil && age < *campaign.TargetAgeMin {
			return false
		}
		if campaign.TargetAgeMax != nil && age > *campaign.TargetAgeMax {
			return false
		}
	}

	if len(campaign.TargetCities) > 0 && !containsFold(campaign.TargetCities, profile.City) {
		return false
	}

	if len(campaign.TargetLanguages) > 0 && !containsFold(campaign.TargetLanguages, profile.Language) {
		return false
	}
	return true
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}

// AudienceEvaluator 受众表达式（CEL）编译与求值
type AudienceEvaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewAudienceEvaluator 创建受众表达式求值器
func NewAudienceEvaluator() (*AudienceEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("gender", cel.StringType),
		cel.Variable("age", cel.IntType),
		cel.Variable("has_age", cel.BoolType),
		cel.Variable("city", cel.StringType),
		cel.Variable("region", cel.StringType),
		cel.Variable("language", cel.StringType),
		cel.Variable("interests", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, err
	}
	return &AudienceEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Validate 校验表达式可编译且返回布尔值
func (e *AudienceEvaluator) Validate(rule string) error {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil
	}
	if _, err := e.program(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrAudienceRuleInvalid, err)
	}
	return nil
}

// Evaluate 对档案求值，空表达式视为通过
func (e *AudienceEvaluator) Evaluate(rule string, profile *models.Profile) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	if profile == nil {
		return false, nil
	}
	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(audienceAttributes(profile))
	if err != nil {
		return false, err
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("audience rule returned %T", out.Value())
	}
	return matched, nil
}

func (e *AudienceEvaluator) program(rule string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.programs[rule] = prg
	e.mu.Unlock()
	return prg, nil
}

func audienceAttributes(profile *models.Profile) map[string]interface{} {
	age := int64(0)
	hasAge := profile.Age != nil
	if hasAge {
		age = int64(*profile.Age)
	}
	interests := make([]string, 0, len(profile.Interests))
	for _, interest := range profile.Interests {
		interests = append(interests, strings.ToLower(strings.TrimSpace(interest)))
	}
	return map[string]interface{}{
		"gender":    strings.ToLower(strings.TrimSpace(profile.Gender)),
		"age":       age,
		"has_age":   hasAge,
		"city":      strings.TrimSpace(profile.City),
		"region":    strings.TrimSpace(profile.Region),
		"language":  strings.ToLower(strings.TrimSpace(profile.Language)),
		"interests": interests,
	}
}

// TargetingService 定向匹配（基础条件 + 受众表达式）
type TargetingService struct {
	audience *AudienceEvaluator
}

// NewTargetingService 创建定向服务
func NewTargetingService(audience *AudienceEvaluator) *TargetingService {
	return &TargetingService{audience: audience}
}

// ValidateRule 校验受众表达式
func (s *TargetingService) ValidateRule(rule string) error {
	if strings.TrimSpace(rule) == "" {
		return nil
	}
	if s == nil || s.audience == nil {
		return ErrAudienceRuleInvalid
	}
	return s.audience.Validate(rule)
}

// Matches 判断档案是否匹配活动；表达式求值失败视为不匹配
func (s *TargetingService) Matches(profile *models.Profile, campaign *models.Campaign) bool {
	if !MatchesTargeting(profile, campaign) {
		return false
	}
	rule := strings.TrimSpace(campaign.AudienceRule)
	if rule == "" {
		return true
	}
	if s == nil || s.audience == nil {
		return false
	}
	matched, err := s.audience.Evaluate(rule, profile)
	if err != nil {
		logger.Warnw("campaign_audience_rule_eval_failed",
			"campaign_id", campaign.ID,
			"profile_id", profile.ID,
			"error", err,
		)
		return false
	}
	return matched
}

// FilterCampaigns 过滤出匹配档案的活动，保持原有顺序
func (s *TargetingService) FilterCampaigns(profile *models.Profile, campaigns []models.Campaign) []models.Campaign {
	result := make([]models.Campaign, 0, len(campaigns))
	for i := range campaigns {
		if s.Matches(profile, &campaigns[i]) {
			result = append(result, campaigns[i])
		}
	}
	return result
}
