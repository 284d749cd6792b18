package repository

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPage     = 1
	defaultLimit    = 20
	maxLimit        = 100
	defaultSortBy   = "created_at"
	sortOrderAsc    = "asc"
	sortOrderDesc   = "desc"
	columnNameRegex = `^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`
)

var columnNamePattern = regexp.MustCompile(columnNameRegex)

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}

// PageQuery 通用分页查询参数
// Filters 中标量值生成等值条件，切片值生成 IN 条件；Search 在 SearchColumns 上做不区分大小写的模糊匹配。
type PageQuery struct {
	Page          int
	Limit         int
	SortBy        string
	SortOrder     string
	Filters       map[string]interface{}
	Search        string
	SearchColumns []string
}

// Page 分页结果元数据
type Page struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Normalize 填充默认值：page=1, limit=20, created_at 倒序
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	if q.SortBy == "" {
		q.SortBy = defaultSortBy
	}
	q.SortOrder = strings.ToLower(strings.TrimSpace(q.SortOrder))
	if q.SortOrder != sortOrderAsc {
		q.SortOrder = sortOrderDesc
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// ApplyFilters 只应用过滤与搜索条件（用于计数）
func (q PageQuery) ApplyFilters(db *gorm.DB) *gorm.DB {
	query := db
	for _, column := range sortedFilterKeys(q.Filters) {
		value := q.Filters[column]
		if !columnNamePattern.MatchString(column) || value == nil {
			continue
		}
		if isSliceValue(value) {
			if reflect.ValueOf(value).Len() == 0 {
				continue
			}
			query = query.Where(fmt.Sprintf("%s IN ?", column), value)
			continue
		}
		query = query.Where(fmt.Sprintf("%s = ?", column), value)
	}
	return applySearch(query, q.Search, q.SearchColumns...)
}

// ApplyOrder 应用排序与分页，排序列必须在白名单内，否则回退默认列
func (q PageQuery) ApplyOrder(db *gorm.DB, sortable ...string) *gorm.DB {
	sortBy := defaultSortBy
	for _, column := range sortable {
		if strings.EqualFold(column, q.SortBy) {
			sortBy = column
			break
		}
	}
	return applyPagination(db.Order(sortBy+" "+q.SortOrder).Order("id "+q.SortOrder), q.Page, q.Limit)
}

// NewPage 根据总数构建分页元数据
func NewPage(total int64, page, limit int) Page {
	if page < 1 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Paginate 执行计数与分页查询，preloads 只作用于数据查询
func Paginate[T any](db *gorm.DB, q PageQuery, sortable []string, preloads ...string) ([]T, Page, error) {
	q = q.Normalize()
	filtered := q.ApplyFilters(db)

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, Page{}, err
	}

	itemsQuery := q.ApplyOrder(filtered, sortable...)
	for _, association := range preloads {
		itemsQuery = itemsQuery.Preload(association)
	}
	items := make([]T, 0)
	if err := itemsQuery.Find(&items).Error; err != nil {
		return nil, Page{}, err
	}
	return items, NewPage(total, q.Page, q.Limit), nil
}

func isSliceValue(value interface{}) bool {
	kind := reflect.TypeOf(value).Kind()
	if kind != reflect.Slice && kind != reflect.Array {
		return false
	}
	_, isBytes := value.([]byte)
	return !isBytes
}

func sortedFilterKeys(filters map[string]interface{}) []string {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	// 固定顺序保证生成的 SQL 稳定
	sort.Strings(keys)
	return keys
}
