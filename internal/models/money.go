package models

import (
	"bytes"
	"database/sql/driver"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// 金额统一两位小数，XOF 也按两位存储以兼容其他币种
const moneyScale = 2

// Money 钱包与活动金额，JSON 中以定点字符串表示
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 四舍五入到两位小数
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// ParseMoney 空串视为 0
func ParseMoney(raw string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Money{Decimal: decimal.Zero}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, err
	}
	return NewMoneyFromDecimal(d), nil
}

// MulInt 单价乘以浏览量
func (m Money) MulInt(n int) Money {
	return NewMoneyFromDecimal(m.Decimal.Mul(decimal.NewFromInt(int64(n))))
}

// IsPositive 大于 0
func (m Money) IsPositive() bool {
	return m.Decimal.Sign() > 0
}

func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

// MarshalJSON 输出 "1500.00"
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON 同时接受 "1500" 与 1500，数字按原文解析避免浮点误差
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		text = unquoted
	}
	parsed, err := ParseMoney(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value 以定点字符串写入 decimal 列
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan 读取后同样规整到两位小数
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}
