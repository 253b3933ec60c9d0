package reference

import (
	"context"
	"errors"
	"strconv"

	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// ReferenceHandler serves the flat reference lists: document types, years
// and areas
type ReferenceHandler struct {
	taxonomy  *taxonomy.Service
	validator *validation.Validator
	log       *utils.Logger
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(svc *taxonomy.Service, log *utils.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		taxonomy:  svc,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// NameRequest is the body for creating a named reference entry
type NameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// ListDocumentTypes handles GET /api/v1/document-types
func (h *ReferenceHandler) ListDocumentTypes(c *fiber.Ctx) error {
	return list(c, h, "document types", h.taxonomy.DocumentTypes)
}

// ListYears handles GET /api/v1/years
func (h *ReferenceHandler) ListYears(c *fiber.Ctx) error {
	return list(c, h, "years", h.taxonomy.Years)
}

// ListAreas handles GET /api/v1/areas
func (h *ReferenceHandler) ListAreas(c *fiber.Ctx) error {
	return list(c, h, "areas", h.taxonomy.Areas)
}

// CreateDocumentType handles POST /api/v1/admin/document-types
func (h *ReferenceHandler) CreateDocumentType(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	dt, err := h.taxonomy.CreateDocumentType(c.UserContext(), adminFrom(c), req.Name)
	if err != nil {
		return h.fail(c, err, "Failed to create document type")
	}
	return response.Created(c, "Document type created successfully", dt)
}

// DeleteDocumentType handles DELETE /api/v1/admin/document-types/:id
func (h *ReferenceHandler) DeleteDocumentType(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid document type ID")
	}
	if err := h.taxonomy.DeleteDocumentType(c.UserContext(), adminFrom(c), uint(id)); err != nil {
		return h.fail(c, err, "Failed to delete document type")
	}
	return response.SuccessWithMessage(c, "Document type deleted successfully", nil)
}

// CreateArea handles POST /api/v1/admin/areas
func (h *ReferenceHandler) CreateArea(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	area, err := h.taxonomy.CreateArea(c.UserContext(), adminFrom(c), req.Name)
	if err != nil {
		return h.fail(c, err, "Failed to create area")
	}
	return response.Created(c, "Area created successfully", area)
}

// DeleteArea handles DELETE /api/v1/admin/areas/:id
func (h *ReferenceHandler) DeleteArea(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid area ID")
	}
	if err := h.taxonomy.DeleteArea(c.UserContext(), adminFrom(c), uint(id)); err != nil {
		return h.fail(c, err, "Failed to delete area")
	}
	return response.SuccessWithMessage(c, "Area deleted successfully", nil)
}

func (h *ReferenceHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, taxonomy.ErrNotFound):
		return response.NotFound(c, "")
	case errors.Is(err, taxonomy.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, taxonomy.ErrInvalid):
		return response.ValidationError(c, err.Error(), nil)
	default:
		h.log.Error(fallback, "error", err)
		return response.InternalServerError(c, fallback)
	}
}

func list[T any](c *fiber.Ctx, h *ReferenceHandler, what string, fetch func(context.Context) ([]T, error)) error {
	items, err := fetch(c.UserContext())
	if err != nil {
		h.log.Error("failed to list reference data", "list", what, "error", err)
		return response.InternalServerError(c, "Failed to fetch "+what)
	}
	return response.Success(c, items)
}

func adminFrom(c *fiber.Ctx) taxonomy.Admin {
	admin := taxonomy.Admin{IPAddress: c.IP()}
	if user, ok := middleware.GetUser(c); ok {
		admin.ID = user.ID
		admin.Email = user.Email
	}
	return admin
}
