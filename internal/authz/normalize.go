package authz

import (
	"errors"
	"strings"
)

const (
	apiV1Prefix = "/api/v1"
	rolePrefix  = "role:"
)

var errRoleRequired = errors.New("role is required")

// NormalizeRole advertiser => role:advertiser，空格折叠为下划线
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "", errRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 去掉 /api/v1 前缀，保证以 / 开头
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	switch {
	case path == apiV1Prefix:
		return "/"
	case strings.HasPrefix(path, apiV1Prefix+"/"):
		return path[len(apiV1Prefix):]
	}
	return path
}

// NormalizeAction HTTP 方法大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
