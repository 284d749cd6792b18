package authz

import (
	"errors"
	"fmt"
	"sort"
)

// ErrBuiltinPolicy 内置角色的分组策略不可撤销
var ErrBuiltinPolicy = errors.New("builtin role policy cannot be revoked")

// Policy 单条路由策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// ListRoles 内置角色与已授予策略的自定义角色，按名称排序
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	set := make(map[string]struct{}, len(subjects)+len(builtinRoleSeeds))
	for _, seed := range builtinRoleSeeds {
		set[seed.subject()] = struct{}{}
	}
	for _, subject := range subjects {
		set[subject] = struct{}{}
	}
	roles := make([]string, 0, len(set))
	for role := range set {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色追加一条路由策略，重复授予无副作用
func (s *Service) GrantRolePolicy(role, object, action string) error {
	rule, err := buildRule(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(rule.Subject, rule.Object, rule.Action); err != nil {
		return fmt.Errorf("grant policy: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色的一条路由策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	rule, err := buildRule(role, object, action)
	if err != nil {
		return err
	}
	if isBuiltinPolicy(rule) {
		return ErrBuiltinPolicy
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(rule.Subject, rule.Object, rule.Action); err != nil {
		return fmt.Errorf("revoke policy: %w", err)
	}
	return nil
}

// GetRolePolicies 角色当前的全部策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("role policies: %w", err)
	}
	policies := make([]Policy, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		policies = append(policies, Policy{Subject: row[0], Object: NormalizeObject(row[1]), Action: NormalizeAction(row[2])})
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object != policies[j].Object {
			return policies[i].Object < policies[j].Object
		}
		return policies[i].Action < policies[j].Action
	})
	return policies, nil
}

func buildRule(role, object, action string) (Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	act := NormalizeAction(action)
	if act == "" {
		return Policy{}, errors.New("action is required")
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: act}, nil
}
