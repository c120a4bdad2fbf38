package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/service"
	"github.com/maxviazov/member-search-service/pkg/response"
)

type ItemHandler struct {
	svc    service.ItemService
	paging Paging
}

func NewItemHandler(svc service.ItemService, paging Paging) *ItemHandler {
	return &ItemHandler{svc: svc, paging: paging}
}

func (h *ItemHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/items")
	{
		g.POST("", h.create)
		g.GET("", h.search)
		g.GET("/:item_id", h.getByID)
		g.PUT("/:item_id", h.update)
	}
}

type createItemRequest struct {
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Category      string `json:"category"`
}

func (h *ItemHandler) create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	it, err := h.svc.SaveItem(c.Request.Context(), model.Item{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, it)
}

func (h *ItemHandler) getByID(c *gin.Context) {
	id, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	it, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, it)
}

type updateItemRequest struct {
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

func (h *ItemHandler) update(c *gin.Context) {
	id, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	it, err := h.svc.UpdateItem(c.Request.Context(), id, req.Name, req.Price, req.StockQuantity)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, it)
}

func (h *ItemHandler) search(c *gin.Context) {
	var s model.ItemSearch
	if err := c.ShouldBindQuery(&s); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	req, err := h.paging.pageRequest(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page, err := h.svc.SearchItems(c.Request.Context(), s, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}
