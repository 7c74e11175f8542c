package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/app"
)

// CategoryHandler serves the category picker.
type CategoryHandler struct {
	service *app.QuoteService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(service *app.QuoteService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(c *gin.Context) {
	list := h.service.Categories(c.Request.Context())

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: list.Categories,
		Selected:   list.Selected,
	})
}

// Select handles PUT /api/v1/categories/selected. The new selection is
// persisted and answered with a pick from it, which becomes the session's
// last quote.
func (h *CategoryHandler) Select(c *gin.Context) {
	var req dto.SelectCategoryRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	display, err := h.service.SelectCategory(c.Request.Context(), middleware.GetSessionID(c), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SelectCategoryResponse{
		Selected: h.service.Selected(),
		Display:  dto.NewDisplayResponse(display),
	})
}

// RegisterCategoryRoutes registers the category routes. Writes go through write.
func (h *CategoryHandler) RegisterCategoryRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	categories := rg.Group("/categories")
	categories.GET("", h.List)
	categories.Group("", write...).PUT("/selected", h.Select)
}
