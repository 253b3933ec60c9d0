package university

import (
	"errors"
	"strconv"

	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	taxonomy  *taxonomy.Service
	validator *validation.Validator
	log       *utils.Logger
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(svc *taxonomy.Service, log *utils.Logger) *UniversityHandler {
	return &UniversityHandler{
		taxonomy:  svc,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// UniversityRequest is the body for creating or renaming a university
type UniversityRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	universities, err := h.taxonomy.Universities(c.UserContext())
	if err != nil {
		h.log.Error("failed to list universities", "error", err)
		return response.InternalServerError(c, "Failed to fetch universities")
	}
	return response.Success(c, universities)
}

// ListCourses handles GET /api/v1/universities/:id/courses
func (h *UniversityHandler) ListCourses(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid university ID")
	}

	courses, err := h.taxonomy.CoursesByUniversity(c.UserContext(), uint(id))
	if err != nil {
		h.log.Error("failed to list courses", "university_id", id, "error", err)
		return response.InternalServerError(c, "Failed to fetch courses")
	}
	return response.Success(c, courses)
}

// CreateUniversity handles POST /api/v1/admin/universities
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	uni, err := h.taxonomy.CreateUniversity(c.UserContext(), adminFrom(c), req.Name)
	if err != nil {
		return h.fail(c, err, "Failed to create university")
	}
	return response.Created(c, "University created successfully", uni)
}

// RenameUniversity handles PUT /api/v1/admin/universities/:id
func (h *UniversityHandler) RenameUniversity(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid university ID")
	}

	var req UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	uni, err := h.taxonomy.RenameUniversity(c.UserContext(), adminFrom(c), uint(id), req.Name)
	if err != nil {
		return h.fail(c, err, "Failed to update university")
	}
	return response.SuccessWithMessage(c, "University updated successfully", uni)
}

// DeleteUniversity handles DELETE /api/v1/admin/universities/:id
func (h *UniversityHandler) DeleteUniversity(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid university ID")
	}

	if err := h.taxonomy.DeleteUniversity(c.UserContext(), adminFrom(c), uint(id)); err != nil {
		return h.fail(c, err, "Failed to delete university")
	}
	return response.SuccessWithMessage(c, "University deleted successfully", nil)
}

func (h *UniversityHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, taxonomy.ErrNotFound):
		return response.NotFound(c, "University not found")
	case errors.Is(err, taxonomy.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, taxonomy.ErrInvalid):
		return response.ValidationError(c, err.Error(), nil)
	default:
		h.log.Error(fallback, "error", err)
		return response.InternalServerError(c, fallback)
	}
}

func adminFrom(c *fiber.Ctx) taxonomy.Admin {
	admin := taxonomy.Admin{IPAddress: c.IP()}
	if user, ok := middleware.GetUser(c); ok {
		admin.ID = user.ID
		admin.Email = user.Email
	}
	return admin
}
