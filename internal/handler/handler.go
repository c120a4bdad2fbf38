package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/service"
	"github.com/maxviazov/member-search-service/pkg/response"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Teams   service.TeamService
	Members service.MemberService
	Items   service.ItemService
	Orders  service.OrderService
}

// Register mounts all public routes on the given engine.
// Accepts service layer dependencies for API endpoints.
func Register(r *gin.Engine, repo Pinger, svcs Services, paging Paging) {
	h := NewHealthHandler(repo)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewTeamHandler(svcs.Teams).Register(api)
		NewMemberHandler(svcs.Members, paging).Register(api)
		NewItemHandler(svcs.Items, paging).Register(api)
		NewOrderHandler(svcs.Orders, paging).Register(api)
	}
}

// pathID parses an integer path parameter. On failure it writes a 400 and returns false.
func pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		response.WriteError(c, service.NewInvalidInputError([]service.FieldError{{Field: "id", Message: "must be a valid integer"}}))
		return 0, false
	}
	return id, true
}
