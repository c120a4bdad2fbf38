package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// All ANDs the non-nil predicates. It returns nil when none are left,
// so callers end up with no WHERE clause at all instead of WHERE (1=1).
func All(preds ...sq.Sqlizer) sq.Sqlizer {
	parts := make(sq.And, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return parts
	}
}

// Filter applies the predicate to b, leaving b untouched for nil.
func Filter(b sq.SelectBuilder, pred sq.Sqlizer) sq.SelectBuilder {
	if pred == nil {
		return b
	}
	return b.Where(pred)
}

// EqText is col = v, or nil when v is blank.
func EqText(col, v string) sq.Sqlizer {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return sq.Eq{col: v}
}

// ContainsText is a case-insensitive substring match, or nil when v is blank.
func ContainsText(col, v string) sq.Sqlizer {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return sq.ILike{col: "%" + escapeLike(v) + "%"}
}

// Eq is col = *v, or nil when v is nil.
func Eq[T any](col string, v *T) sq.Sqlizer {
	if v == nil {
		return nil
	}
	return sq.Eq{col: *v}
}

// Goe is col >= *v, or nil when v is nil.
func Goe[T any](col string, v *T) sq.Sqlizer {
	if v == nil {
		return nil
	}
	return sq.GtOrEq{col: *v}
}

// Loe is col <= *v, or nil when v is nil.
func Loe[T any](col string, v *T) sq.Sqlizer {
	if v == nil {
		return nil
	}
	return sq.LtOrEq{col: *v}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
