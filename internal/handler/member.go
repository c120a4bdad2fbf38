package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/service"
	"github.com/maxviazov/member-search-service/pkg/response"
)

type MemberHandler struct {
	svc    service.MemberService
	paging Paging
}

func NewMemberHandler(svc service.MemberService, paging Paging) *MemberHandler {
	return &MemberHandler{svc: svc, paging: paging}
}

func (h *MemberHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/members")
	{
		g.POST("", h.join)
		g.GET("", h.search)
		g.GET("/page", h.searchPage)
		g.GET("/slice", h.searchSlice)
		g.GET("/:member_id", h.getByID)
	}
}

type joinMemberRequest struct {
	Username string `json:"username"`
	Age      int    `json:"age"`
	TeamID   *int64 `json:"team_id"`
	City     string `json:"city"`
	Street   string `json:"street"`
	Zipcode  string `json:"zipcode"`
}

func (h *MemberHandler) join(c *gin.Context) {
	var req joinMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	m, err := h.svc.JoinMember(c.Request.Context(), model.Member{
		Username: req.Username,
		Age:      req.Age,
		TeamID:   req.TeamID,
		Address:  model.Address{City: req.City, Street: req.Street, Zipcode: req.Zipcode},
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, m)
}

func (h *MemberHandler) getByID(c *gin.Context) {
	id, ok := pathID(c, "member_id")
	if !ok {
		return
	}
	m, err := h.svc.GetMember(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, m)
}

func bindMemberSearch(c *gin.Context) (model.MemberSearch, bool) {
	var s model.MemberSearch
	if err := c.ShouldBindQuery(&s); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return s, false
	}
	return s, true
}

func (h *MemberHandler) search(c *gin.Context) {
	s, ok := bindMemberSearch(c)
	if !ok {
		return
	}
	rows, err := h.svc.SearchMembers(c.Request.Context(), s)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, rows)
}

func (h *MemberHandler) searchPage(c *gin.Context) {
	s, ok := bindMemberSearch(c)
	if !ok {
		return
	}
	req, err := h.paging.pageRequest(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page, err := h.svc.SearchMemberPage(c.Request.Context(), s, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *MemberHandler) searchSlice(c *gin.Context) {
	s, ok := bindMemberSearch(c)
	if !ok {
		return
	}
	req, err := h.paging.pageRequest(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	sl, err := h.svc.SearchMemberSlice(c.Request.Context(), s, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sl)
}
