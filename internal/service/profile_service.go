package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	profileMinAge          = 16
	profileMaxAge          = 80
	usersCacheDefaultTTL   = 2 * time.Minute
	profileMaxInterestTags = 20
)

// CompanyInput 广告主企业信息输入
type CompanyInput struct {
	CompanyName        string `json:"company_name"`
	BusinessSector     string `json:"business_sector"`
	CompanyAddress     string `json:"company_address"`
	ContactPersonEmail string `json:"contact_person_email"`
	TaxID              string `json:"tax_id"`
}

// CreateProfileInput 角色选择输入
type CreateProfileInput struct {
	Role         string
	FullName     string
	Email        string
	Region       string
	City         string
	Age          *int
	Gender       string
	Language     string
	Interests    []string
	ReferralCode string
	Company      *CompanyInput
}

// UpdateProfileInput 档案更新输入（nil 字段不修改）
type UpdateProfileInput struct {
	Role      *string
	FullName  *string
	Email     *string
	Region    *string
	City      *string
	Age       *int
	ClearAge  bool
	Gender    *string
	Language  *string
	Interests []string
	AvatarURL *string
	Company   *CompanyInput
}

// ProfileListInput 管理端档案列表输入
type ProfileListInput struct {
	Page     int
	PageSize int
	Role     string
	Status   string // active / inactive / 空
	Search   string
}

// ProfileListResult 管理端档案列表结果
type ProfileListResult struct {
	Items []models.Profile `json:"items"`
	Total int64            `json:"total"`
}

// ProfileService 角色档案服务
type ProfileService struct {
	profileRepo     repository.ProfileRepository
	walletService   *WalletService
	referralService *ReferralService
	locations       *LocationService
	cache           *querycache.Service
	usersTTL        time.Duration
}

// NewProfileService 创建档案服务
func NewProfileService(
	profileRepo repository.ProfileRepository,
	walletService *WalletService,
	referralService *ReferralService,
	locations *LocationService,
	queryCache *querycache.Service,
	usersTTL time.Duration,
) *ProfileService {
	if locations == nil {
		locations = NewLocationService()
	}
	if usersTTL <= 0 {
		usersTTL = usersCacheDefaultTTL
	}
	return &ProfileService{
		profileRepo:     profileRepo,
		walletService:   walletService,
		referralService: referralService,
		locations:       locations,
		cache:           queryCache,
		usersTTL:        usersTTL,
	}
}

// GetByAccountID 按账号获取档案
func (s *ProfileService) GetByAccountID(accountID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// GetByID 按ID获取档案
func (s *ProfileService) GetByID(id uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Create 角色选择：在同一事务内创建档案、钱包、推荐关系与企业信息
func (s *ProfileService) Create(ctx context.Context, accountID uint, input CreateProfileInput) (*models.Profile, error) {
	if accountID == 0 {
		return nil, ErrAccountNotFound
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != constants.RoleAdvertiser && role != constants.RoleBroadcaster {
		return nil, ErrInvalidRole
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	email, err := normalizeOptionalEmail(input.Email)
	if err != nil {
		return nil, err
	}
	gender, err := normalizeGender(input.Gender)
	if err != nil {
		return nil, err
	}
	if err := validateAge(input.Age); err != nil {
		return nil, err
	}
	region, city, err := s.locations.Normalize(input.Region, input.City)
	if err != nil {
		return nil, err
	}
	var company *models.CompanyInfo
	if role == constants.RoleAdvertiser {
		company, err = buildCompanyInfo(input.Company)
		if err != nil {
			return nil, err
		}
	}

	existing, err := s.profileRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	var referrer *models.Profile
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err = s.profileRepo.GetByReferralCode(code)
		if err != nil {
			return nil, err
		}
		if referrer == nil || !referrer.IsActive {
			return nil, ErrReferralCodeInvalid
		}
	}

	now := time.Now()
	profile := &models.Profile{
		AccountID:    accountID,
		Role:         role,
		FullName:     fullName,
		Email:        email,
		Region:       region,
		City:         city,
		Age:          input.Age,
		Gender:       gender,
		Language:     strings.TrimSpace(input.Language),
		Interests:    normalizeInterests(input.Interests),
		ReferralCode: s.referralService.NewCode(),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if referrer != nil {
		profile.ReferredBy = &referrer.ID
	}

	err = s.profileRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.profileRepo.WithTx(tx)
		if err := repo.Create(profile); err != nil {
			return err
		}
		if _, err := s.walletService.EnsureAccountInTx(tx, profile.ID); err != nil {
			return err
		}
		if err := s.referralService.BindInTx(tx, referrer, profile.ID); err != nil {
			return err
		}
		if company != nil {
			company.ProfileID = profile.ID
			if err := repo.UpsertCompanyInfo(company); err != nil {
				return err
			}
			profile.CompanyInfo = company
		}
		return nil
	})
	if err != nil {
		// 并发重复提交时唯一索引冲突
		if again, queryErr := s.profileRepo.GetByAccountID(accountID); queryErr == nil && again != nil {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	_ = cache.DelAccountAuthState(ctx, accountID)
	invalidateCache(ctx, s.cache, constants.CacheScopeUsers, constants.CacheScopeStats)
	logger.Infow("profile_created", "profile_id", profile.ID, "account_id", accountID, "role", role, "referred", referrer != nil)
	return profile, nil
}

// Update 更新档案，角色创建后不可修改
func (s *ProfileService) Update(ctx context.Context, profile *models.Profile, input UpdateProfileInput) (*models.Profile, error) {
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if input.Role != nil && !strings.EqualFold(strings.TrimSpace(*input.Role), profile.Role) {
		return nil, ErrRoleImmutable
	}
	fields := map[string]interface{}{}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, ErrFullNameRequired
		}
		fields["full_name"] = fullName
	}
	if input.Email != nil {
		email, err := normalizeOptionalEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if input.Gender != nil {
		gender, err := normalizeGender(*input.Gender)
		if err != nil {
			return nil, err
		}
		fields["gender"] = gender
	}
	if input.ClearAge {
		fields["age"] = nil
	} else if input.Age != nil {
		if err := validateAge(input.Age); err != nil {
			return nil, err
		}
		fields["age"] = *input.Age
	}
	if input.Region != nil || input.City != nil {
		region, city := profile.Region, profile.City
		if input.Region != nil {
			region = *input.Region
			if input.City == nil {
				city = ""
			}
		}
		if input.City != nil {
			city = *input.City
		}
		normalizedRegion, normalizedCity, err := s.locations.Normalize(region, city)
		if err != nil {
			return nil, err
		}
		fields["region"] = normalizedRegion
		fields["city"] = normalizedCity
	}
	if input.Language != nil {
		fields["language"] = strings.TrimSpace(*input.Language)
	}
	if input.Interests != nil {
		fields["interests"] = normalizeInterests(input.Interests)
	}
	if input.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	var company *models.CompanyInfo
	if input.Company != nil {
		if profile.Role != constants.RoleAdvertiser {
			return nil, ErrInvalidInput
		}
		built, err := buildCompanyInfo(input.Company)
		if err != nil {
			return nil, err
		}
		built.ProfileID = profile.ID
		company = built
	}

	err := s.profileRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.profileRepo.WithTx(tx)
		if err := repo.UpdateFields(profile.ID, fields); err != nil {
			return err
		}
		if company != nil {
			return repo.UpsertCompanyInfo(company)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateCache(ctx, s.cache, constants.CacheScopeUsers, constants.CacheScopeAvailableCampaigns)
	return s.GetByID(profile.ID)
}

// LinkTelegramChat 通过推荐码绑定 Telegram 推送会话
func (s *ProfileService) LinkTelegramChat(ctx context.Context, referralCode, chatID string) error {
	code := strings.TrimSpace(referralCode)
	chatID = strings.TrimSpace(chatID)
	if code == "" || chatID == "" {
		return ErrReferralCodeInvalid
	}
	profile, err := s.profileRepo.GetByReferralCode(code)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrReferralCodeInvalid
	}
	if err := s.profileRepo.UpdateFields(profile.ID, map[string]interface{}{"telegram_chat_id": chatID}); err != nil {
		return err
	}
	logger.Infow("profile_telegram_linked", "profile_id", profile.ID)
	return nil
}

// List 管理端档案列表（带缓存）
func (s *ProfileService) List(ctx context.Context, input ProfileListInput) (*ProfileListResult, error) {
	filter := repository.ProfileListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Role:     strings.ToLower(strings.TrimSpace(input.Role)),
		Search:   strings.TrimSpace(input.Search),
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	switch status {
	case "active":
		active := true
		filter.IsActive = &active
	case "inactive":
		inactive := false
		filter.IsActive = &inactive
	default:
		status = "all"
	}
	role := filter.Role
	if role == "" {
		role = "all"
	}
	key := querycache.Key(constants.CacheScopeUsers, filter.Page, role, status, filter.Search)
	return cachedFetch(ctx, s.cache, key, s.usersTTL, func(ctx context.Context) (*ProfileListResult, error) {
		items, total, err := s.profileRepo.List(filter)
		if err != nil {
			return nil, err
		}
		return &ProfileListResult{Items: items, Total: total}, nil
	})
}

// SetActive 启用或停用档案
func (s *ProfileService) SetActive(ctx context.Context, id uint, active bool) (*models.Profile, error) {
	profile, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateFields(id, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	_ = cache.DelAccountAuthState(ctx, profile.AccountID)
	invalidateCache(ctx, s.cache, constants.CacheScopeUsers, constants.CacheScopeStats)
	profile.IsActive = active
	logger.Infow("profile_active_changed", "profile_id", id, "is_active", active)
	return profile, nil
}

// Verify 管理员认证档案
func (s *ProfileService) Verify(ctx context.Context, id uint) (*models.Profile, error) {
	profile, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateFields(id, map[string]interface{}{"is_verified": true}); err != nil {
		return nil, err
	}
	invalidateCache(ctx, s.cache, constants.CacheScopeUsers)
	profile.IsVerified = true
	return profile, nil
}

// Delete 软删除档案
func (s *ProfileService) Delete(ctx context.Context, id uint) error {
	profile, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if profile.Role == constants.RoleAdmin {
		return ErrForbidden
	}
	if err := s.profileRepo.SoftDelete(id); err != nil {
		return err
	}
	_ = cache.DelAccountAuthState(ctx, profile.AccountID)
	invalidateCache(ctx, s.cache, constants.CacheScopeUsers, constants.CacheScopeStats)
	logger.Infow("profile_deleted", "profile_id", id)
	return nil
}

// Locations 贝宁地区数据
func (s *ProfileService) Locations() []Department {
	return s.locations.Departments()
}

func normalizeGender(raw string) (string, error) {
	gender := strings.ToLower(strings.TrimSpace(raw))
	switch gender {
	case "", constants.GenderMale, constants.GenderFemale, constants.GenderOther:
		return gender, nil
	default:
		return "", ErrInvalidGender
	}
}

func validateAge(age *int) error {
	if age == nil {
		return nil
	}
	if *age < profileMinAge || *age > profileMaxAge {
		return ErrInvalidAge
	}
	return nil
}

func normalizeOptionalEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func normalizeInterests(raw []string) datatypes.JSONSlice[string] {
	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, value)
		if len(result) >= profileMaxInterestTags {
			break
		}
	}
	return datatypes.JSONSlice[string](result)
}

func buildCompanyInfo(input *CompanyInput) (*models.CompanyInfo, error) {
	if input == nil || strings.TrimSpace(input.CompanyName) == "" {
		return nil, ErrCompanyNameRequired
	}
	contactEmail, err := normalizeOptionalEmail(input.ContactPersonEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: contact_person_email", err)
	}
	now := time.Now()
	return &models.CompanyInfo{
		CompanyName:        strings.TrimSpace(input.CompanyName),
		BusinessSector:     strings.TrimSpace(input.BusinessSector),
		CompanyAddress:     strings.TrimSpace(input.CompanyAddress),
		ContactPersonEmail: contactEmail,
		TaxID:              strings.TrimSpace(input.TaxID),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
