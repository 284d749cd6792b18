package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// dialectOf 未知驱动按 sqlite 语法处理
func dialectOf(db *gorm.DB) dialect {
	if db == nil || db.Dialector == nil {
		return dialectSQLite
	}
	switch strings.ToLower(db.Dialector.Name()) {
	case "postgres", "postgresql":
		return dialectPostgres
	default:
		return dialectSQLite
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchClause 生成多列模糊匹配，关键字中的通配符按字面匹配；无可用列时 ok 为 false
func searchClause(d dialect, term string, columns []string) (clause string, args []interface{}, ok bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", nil, false
	}
	operator := "LIKE"
	if d == dialectPostgres {
		operator = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if !columnNamePattern.MatchString(column) {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s ? ESCAPE '\'`, column, operator))
		args = append(args, pattern)
	}
	if len(parts) == 0 {
		return "", nil, false
	}
	return "(" + strings.Join(parts, " OR ") + ")", args, true
}

// applySearch 把 searchClause 挂到查询上
func applySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	clause, args, ok := searchClause(dialectOf(query), term, columns)
	if !ok {
		return query
	}
	return query.Where(clause, args...)
}

// jsonArrayContainsExpr 判断 JSON 数组列是否包含参数值
func jsonArrayContainsExpr(db *gorm.DB, column string) string {
	if dialectOf(db) == dialectPostgres {
		return fmt.Sprintf("jsonb_exists(%s::jsonb, ?)", column)
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", column)
}
