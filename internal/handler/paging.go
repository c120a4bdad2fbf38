package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/query"
)

// Paging holds query-string defaults for paged endpoints.
type Paging struct {
	DefaultSize int
}

const fallbackPageSize = 20

// pageRequest reads ?page=&size=&sort=field,dir (sort may repeat).
// Missing page/size fall back to defaults; present but malformed values are
// rejected, and range checks are left to the query layer.
func (p Paging) pageRequest(c *gin.Context) (query.PageRequest, error) {
	size := p.DefaultSize
	if size <= 0 {
		size = fallbackPageSize
	}
	req := query.PageRequest{Size: size}

	if v, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return query.PageRequest{}, fmt.Errorf("%w: page must be an integer", query.ErrInvalidPageRequest)
		}
		req.Index = n
	}
	if v, ok := c.GetQuery("size"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return query.PageRequest{}, fmt.Errorf("%w: size must be an integer", query.ErrInvalidPageRequest)
		}
		req.Size = n
	}
	for _, raw := range c.QueryArray("sort") {
		field, dir, _ := strings.Cut(raw, ",")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, ok := query.ParseDirection(dir)
		if !ok {
			return query.PageRequest{}, fmt.Errorf("%w: unknown sort direction %q", query.ErrInvalidPageRequest, dir)
		}
		req.Sort = append(req.Sort, query.Order{Field: field, Direction: d})
	}
	return req, nil
}
