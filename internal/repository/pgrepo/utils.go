package pgrepo

import (
	"fmt"
	"math"
	"strings"
)

// rowScanner общий интерфейс pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// safeConvertUintToInt32 безопасно конвертирует uint в int32. В случае выхода значения за рамки диапазона
// возвращает ошибку.
func safeConvertUintToInt32(val uint) (int32, error) {
	if val > uint(math.MaxInt32) {
		return 0, fmt.Errorf("value is out of range: %d", val)
	}
	return int32(val), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// escapeLike экранирует спецсимволы шаблона LIKE.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
