package admin

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler /admin 分组的审核、资金与权限接口，路由层已完成角色校验
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// currentAdmin 审核记录中的操作人
func currentAdmin(c *gin.Context) (*models.Profile, bool) {
	return shared.MustProfile(c)
}

func pathID(c *gin.Context) (uint, bool) {
	return shared.ParamUint(c, "id")
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return shared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	shared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	shared.RespondServiceError(c, err)
}
