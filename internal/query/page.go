// Package query composes filtered, ordered and paged reads out of two
// independent plans: one for the page content and one for the total count.
package query

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Direction is the sort direction of a single ordering term.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case (and the long ascending/descending forms).
// An empty string means ascending.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC", "ASCENDING":
		return Asc, true
	case "DESC", "DESCENDING":
		return Desc, true
	default:
		return "", false
	}
}

// Order is one ordering term: a public field name plus a direction.
// Field names are resolved to columns by the Planner, never interpolated as-is.
// Direction is read with ParseDirection, so "" and lowercase forms are accepted.
type Order struct {
	Field     string    `json:"field" validate:"required"`
	Direction Direction `json:"direction"`
}

// PageRequest is a zero-based page window with an optional ordering.
type PageRequest struct {
	Index int     `json:"page" validate:"gte=0"`
	Size  int     `json:"size" validate:"gt=0"`
	Sort  []Order `json:"sort,omitempty" validate:"dive"`
}

// Of is a shorthand for an unsorted page request.
func Of(index, size int, sort ...Order) PageRequest {
	return PageRequest{Index: index, Size: size, Sort: sort}
}

// Offset is the number of rows skipped before the page starts.
func (p PageRequest) Offset() int { return p.Index * p.Size }

// Limit is the maximum number of rows in the page.
func (p PageRequest) Limit() int { return p.Size }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// maxRow is the last row position a request may reach. It keeps offset, the
// end of the page and the slice lookahead row inside int64.
const maxRow = math.MaxInt64 - 1

// Validate fails with ErrInvalidPageRequest for a negative index, a non-positive
// size, a window past maxRow or a malformed ordering term.
func (p PageRequest) Validate() error {
	if err := validate.Struct(p); err != nil {
		return validationErr(err)
	}
	if int64(p.Index) > maxRow/int64(p.Size)-1 {
		return fmt.Errorf("%w: page %d is out of range for size %d", ErrInvalidPageRequest, p.Index, p.Size)
	}
	for _, o := range p.Sort {
		if _, ok := ParseDirection(string(o.Direction)); !ok {
			return fmt.Errorf("%w: unknown sort direction %q", ErrInvalidPageRequest, o.Direction)
		}
	}
	return nil
}

func validationErr(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidPageRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidPageRequest, strings.Join(msgs, "; "))
}

// Page is a bounded slice of an ordered result set plus navigation metadata.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	Index         int   `json:"page"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	HasNext       bool  `json:"has_next"`
}

// NewPage computes page metadata for content fetched with req and a total count.
// A total smaller than what the content itself proves (count and content read at
// different points in time) is raised to offset+len(content).
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	if n := len(content); n > 0 {
		if seen := int64(req.Offset()) + int64(n); seen > total {
			total = seen
		}
	}
	if total < 0 {
		total = 0
	}
	var pages int
	if req.Size > 0 {
		size := int64(req.Size)
		pages = int(total / size)
		if total%size != 0 {
			pages++
		}
	}
	// (index+1)*size < total, written so that it cannot overflow
	offset := int64(req.Offset())
	hasNext := total > offset && total-offset > int64(req.Size)
	return Page[T]{
		Content:       content,
		TotalElements: total,
		Index:         req.Index,
		Size:          req.Size,
		TotalPages:    pages,
		First:         req.Index == 0,
		Last:          !hasNext,
		HasNext:       hasNext,
	}
}

// Slice is a count-free page: it only knows whether another page follows.
type Slice[T any] struct {
	Content []T  `json:"content"`
	Index   int  `json:"page"`
	Size    int  `json:"size"`
	First   bool `json:"first"`
	Last    bool `json:"last"`
	HasNext bool `json:"has_next"`
}

// NewSlice trims a Size+1 lookahead fetch down to req.Size rows.
func NewSlice[T any](fetched []T, req PageRequest) Slice[T] {
	hasNext := len(fetched) > req.Size
	if hasNext {
		fetched = fetched[:req.Size]
	}
	if fetched == nil {
		fetched = []T{}
	}
	return Slice[T]{
		Content: fetched,
		Index:   req.Index,
		Size:    req.Size,
		First:   req.Index == 0,
		Last:    !hasNext,
		HasNext: hasNext,
	}
}
