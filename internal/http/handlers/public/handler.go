package public

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 登录、档案以及广告主和推广者两侧的业务接口
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	shared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	shared.RespondServiceError(c, err)
}
