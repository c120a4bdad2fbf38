package service

import (
	"strings"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
)

// PageLimits bounds page sizes accepted from clients.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits is used when a service is built with zero limits.
var DefaultPageLimits = PageLimits{Default: 20, Max: 100}

func (l PageLimits) orDefault() PageLimits {
	if l.Default <= 0 || l.Max <= 0 {
		return DefaultPageLimits
	}
	return l
}

// clampPage caps oversized pages. Non-positive sizes and negative indexes are
// left alone so the query layer rejects them.
func clampPage(p query.PageRequest, l PageLimits) query.PageRequest {
	if p.Size > l.Max {
		p.Size = l.Max
	}
	return p
}

func checkRange[T int | int64](ferrs []FieldError, field string, lo, hi *T) []FieldError {
	if lo != nil && *lo < 0 {
		ferrs = append(ferrs, FieldError{Field: field + "_goe", Message: "must be >= 0"})
	}
	if hi != nil && *hi < 0 {
		ferrs = append(ferrs, FieldError{Field: field + "_loe", Message: "must be >= 0"})
	}
	return ferrs
}

func isValidCategory(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case model.CategoryBook, model.CategoryAlbum, model.CategoryMovie:
		return true
	default:
		return false
	}
}

func isValidOrderStatus(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case model.OrderStatusOrder, model.OrderStatusCancel:
		return true
	default:
		return false
	}
}
