package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/adstatus-next/internal/authz"
	"github.com/adstatus-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}
	response.Success(c, gin.H{
		"role":     role,
		"builtin":  authz.IsBuiltinRole(role),
		"policies": policies,
	})
}

// GrantAuthzRolePolicy 为角色授予路由策略
func (h *Handler) GrantAuthzRolePolicy(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_granted",
		"role", role,
		"object", authz.NormalizeObject(req.Object),
		"action", authz.NormalizeAction(req.Action),
	)
	response.Success(c, gin.H{"granted": true})
}

// RevokeAuthzRolePolicy 撤销角色路由策略
func (h *Handler) RevokeAuthzRolePolicy(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		if errors.Is(err, authz.ErrBuiltinPolicy) {
			respondError(c, response.CodeConflict, "error.builtin_policy_locked", nil)
			return
		}
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_revoked",
		"role", role,
		"object", authz.NormalizeObject(req.Object),
		"action", authz.NormalizeAction(req.Action),
	)
	response.Success(c, gin.H{"revoked": true})
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
