package search

import (
	"strconv"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/search"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SearchHandler serves the public collections
type SearchHandler struct {
	db     *gorm.DB
	search *search.Service
	log    *utils.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(db *gorm.DB, svc *search.Service, log *utils.Logger) *SearchHandler {
	return &SearchHandler{db: db, search: svc, log: log}
}

// SearchMaterials handles GET /api/v1/materials/search
func (h *SearchHandler) SearchMaterials(c *fiber.Ctx) error {
	var filter search.MaterialFilter
	if err := c.QueryParser(&filter); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	return reply(c, h.search.Materials(c.UserContext(), filter))
}

// SearchServices handles GET /api/v1/services/search
func (h *SearchHandler) SearchServices(c *fiber.Ctx) error {
	var filter search.ServiceFilter
	if err := c.QueryParser(&filter); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	return reply(c, h.search.Services(c.UserContext(), filter))
}

// reply writes the outcome as-is; only the error outcome changes the status
func reply[T any](c *fiber.Ctx, result search.Result[T]) error {
	status := fiber.StatusOK
	if result.Outcome == search.OutcomeError {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(response.Response{
		Success: result.Outcome != search.OutcomeError,
		Message: result.Message,
		Data:    result,
	})
}

// ListMaterials handles GET /api/v1/materials
func (h *SearchHandler) ListMaterials(c *fiber.Ctx) error {
	return paginate[model.AcademicMaterial](c, h, "materials")
}

// ListServices handles GET /api/v1/services
func (h *SearchHandler) ListServices(c *fiber.Ctx) error {
	return paginate[model.LocalService](c, h, "services")
}

func paginate[T any](c *fiber.Ctx, h *SearchHandler, what string) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	page, limit = response.NormalizePage(page, limit)

	var total int64
	if err := h.db.WithContext(c.UserContext()).Model(new(T)).Count(&total).Error; err != nil {
		h.log.Error("failed to count public records", "collection", what, "error", err)
		return response.InternalServerError(c, "Failed to fetch "+what)
	}

	items := []T{}
	if err := h.db.WithContext(c.UserContext()).
		Order("approved_at DESC, id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error; err != nil {
		h.log.Error("failed to list public records", "collection", what, "error", err)
		return response.InternalServerError(c, "Failed to fetch "+what)
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}
