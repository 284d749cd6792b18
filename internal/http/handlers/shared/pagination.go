package shared

import (
	"strconv"
	"strings"

	"github.com/adstatus-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ParsePagination 读取 page 与 limit（兼容 page_size）查询参数。
func ParsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.DefaultQuery("page", "1")))
	limitRaw := strings.TrimSpace(c.Query("limit"))
	if limitRaw == "" {
		limitRaw = strings.TrimSpace(c.DefaultQuery("page_size", "20"))
	}
	limit, _ := strconv.Atoi(limitRaw)
	return NormalizePagination(page, limit)
}

// BuildPagination 构建分页响应元数据。
func BuildPagination(page, pageSize int, total int64) response.Pagination {
	return response.NewPagination(page, pageSize, total)
}
