package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/service"
	"github.com/maxviazov/member-search-service/pkg/response"
)

type OrderHandler struct {
	svc    service.OrderService
	paging Paging
}

func NewOrderHandler(svc service.OrderService, paging Paging) *OrderHandler {
	return &OrderHandler{svc: svc, paging: paging}
}

func (h *OrderHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/orders")
	{
		g.POST("", h.place)
		g.GET("", h.search)
		g.POST("/:order_id/cancel", h.cancel)
	}
}

type placeOrderRequest struct {
	MemberID int64 `json:"member_id"`
	ItemID   int64 `json:"item_id"`
	Count    int   `json:"count"`
}

func (h *OrderHandler) place(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	o, err := h.svc.PlaceOrder(c.Request.Context(), req.MemberID, req.ItemID, req.Count)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, o)
}

func (h *OrderHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "order_id")
	if !ok {
		return
	}
	if err := h.svc.CancelOrder(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) search(c *gin.Context) {
	var s model.OrderSearch
	if err := c.ShouldBindQuery(&s); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	req, err := h.paging.pageRequest(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page, err := h.svc.SearchOrders(c.Request.Context(), s, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}
