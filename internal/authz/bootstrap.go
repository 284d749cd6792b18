package authz

import (
	"fmt"

	"github.com/adstatus-next/internal/constants"
)

type roleSeed struct {
	role   string
	object string
}

func (r roleSeed) subject() string {
	subject, _ := NormalizeRole(r.role)
	return subject
}

// 每个档案角色只能访问自己的路由分组
var builtinRoleSeeds = []roleSeed{
	{role: constants.RoleAdvertiser, object: "/advertiser/*"},
	{role: constants.RoleBroadcaster, object: "/broadcaster/*"},
	{role: constants.RoleAdmin, object: "/admin/*"},
}

// IsBuiltinRole 是否为平台预置角色
func IsBuiltinRole(role string) bool {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range builtinRoleSeeds {
		if seed.subject() == subject {
			return true
		}
	}
	return false
}

func isBuiltinPolicy(rule Policy) bool {
	for _, seed := range builtinRoleSeeds {
		if seed.subject() == rule.Subject && seed.object == rule.Object && rule.Action == "*" {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 写入预置角色的分组策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range builtinRoleSeeds {
		if _, err := s.enforcer.AddPolicy(seed.subject(), seed.object, "*"); err != nil {
			return fmt.Errorf("seed %s policy: %w", seed.role, err)
		}
	}
	return nil
}
