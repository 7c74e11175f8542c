package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// importFormField is the multipart field carrying an uploaded export.
const importFormField = "file"

// QuoteHandler handles the quote endpoints.
type QuoteHandler struct {
	service *app.QuoteService
	store   *app.QuoteStore
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService, store *app.QuoteStore) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		store:   store,
	}
}

// List handles GET /api/v1/quotes.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter, \"all\" for every quote"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	category := domain.NormalizeCategory(req.Category)
	quotes := dto.NewQuoteResponses(h.service.List(c.Request.Context(), category))

	page, err := dto.Paginate(quotes, req.PageRequest, category)
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("cursor", err.Error()))
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body dto.CreateQuoteRequest true "Quote"
// @Success 201 {object} dto.CreateQuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateQuoteResponse{
		Quote:   dto.NewQuoteResponse(quote),
		Message: app.MsgQuoteAdded,
	})
}

// Random handles GET /api/v1/quotes/random. Without a category query the
// current category selection applies. An empty selection is a 200 carrying
// the placeholder message.
//
// @Summary Show a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category to pick from"
// @Success 200 {object} dto.DisplayResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) Random(c *gin.Context) {
	display := h.service.ShowRandom(c.Request.Context(), middleware.GetSessionID(c), c.Query("category"))

	c.JSON(http.StatusOK, dto.NewDisplayResponse(display))
}

// Last handles GET /api/v1/quotes/last.
//
// @Summary Last quote shown to this session
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/last [get]
func (h *QuoteHandler) Last(c *gin.Context) {
	quote, err := h.service.LastQuote(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Export handles GET /api/v1/quotes/export as a quotes.json download.
//
// @Summary Export quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) Export(c *gin.Context) {
	payload, err := h.store.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+app.ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", payload)
}

// Import handles POST /api/v1/quotes/import. The payload is either the
// multipart field "file" or the raw request body.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	payload, err := readImportPayload(c)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	count, err := h.store.Import(c.Request.Context(), payload)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Count: count, Message: app.MsgQuotesImported})
}

func readImportPayload(c *gin.Context) ([]byte, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, domain.NewValidationError(importFormField, "unreadable request body")
		}
		return payload, nil
	}

	header, err := c.FormFile(importFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, domain.NewValidationError(importFormField, "no file uploaded")
		}
		return nil, domain.NewValidationError(importFormField, "malformed upload")
	}

	return readUpload(header)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, domain.NewValidationError(importFormField, "unreadable upload")
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.NewValidationError(importFormField, "unreadable upload")
	}

	return payload, nil
}

// RegisterQuoteRoutes registers the quote routes. Writes go through write.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.GET("/random", h.Random)
	quotes.GET("/last", h.Last)
	quotes.GET("/export", h.Export)

	writes := quotes.Group("", write...)
	writes.POST("", h.Create)
	writes.POST("/import", h.Import)
}
