package course

import (
	"errors"
	"strconv"

	"github.com/campusconnect/api/services/selector"
	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// CourseHandler handles course and branch requests
type CourseHandler struct {
	taxonomy  *taxonomy.Service
	validator *validation.Validator
	log       *utils.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc *taxonomy.Service, log *utils.Logger) *CourseHandler {
	return &CourseHandler{
		taxonomy:  svc,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// BranchRequest is the body for creating a branch
type BranchRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// UpdateCourseRequest is the body for updating a course. A course never
// moves to another university.
type UpdateCourseRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Duration int    `json:"duration" validate:"min=0,max=10"`
}

// ListBranches handles GET /api/v1/courses/:id/branches
func (h *CourseHandler) ListBranches(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	branches, err := h.taxonomy.BranchesByCourse(c.UserContext(), uint(id))
	if err != nil {
		h.log.Error("failed to list branches", "course_id", id, "error", err)
		return response.InternalServerError(c, "Failed to fetch branches")
	}
	return response.Success(c, branches)
}

// ListYears handles GET /api/v1/courses/:id/years. The labels come from the
// course duration, not from the static year list.
func (h *CourseHandler) ListYears(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.taxonomy.Course(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			return response.NotFound(c, "Course not found")
		}
		h.log.Error("failed to fetch course", "course_id", id, "error", err)
		return response.InternalServerError(c, "Failed to fetch course")
	}
	return response.Success(c, selector.YearLabels(course.Duration))
}

// CreateCourse handles POST /api/v1/admin/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req taxonomy.CourseInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	course, err := h.taxonomy.CreateCourse(c.UserContext(), adminFrom(c), req)
	if err != nil {
		return h.fail(c, err, "Course not found", "Failed to create course")
	}
	return response.Created(c, "Course created successfully", course)
}

// UpdateCourse handles PUT /api/v1/admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	in := taxonomy.CourseInput{Name: req.Name, Duration: req.Duration}
	course, err := h.taxonomy.UpdateCourse(c.UserContext(), adminFrom(c), uint(id), in)
	if err != nil {
		return h.fail(c, err, "Course not found", "Failed to update course")
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/admin/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.taxonomy.DeleteCourse(c.UserContext(), adminFrom(c), uint(id)); err != nil {
		return h.fail(c, err, "Course not found", "Failed to delete course")
	}
	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}

// CreateBranch handles POST /api/v1/admin/courses/:id/branches
func (h *CourseHandler) CreateBranch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	branch, err := h.taxonomy.CreateBranch(c.UserContext(), adminFrom(c), uint(id), req.Name)
	if err != nil {
		return h.fail(c, err, "Course not found", "Failed to create branch")
	}
	return response.Created(c, "Branch created successfully", branch)
}

// DeleteBranch handles DELETE /api/v1/admin/branches/:id
func (h *CourseHandler) DeleteBranch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid branch ID")
	}

	if err := h.taxonomy.DeleteBranch(c.UserContext(), adminFrom(c), uint(id)); err != nil {
		return h.fail(c, err, "Branch not found", "Failed to delete branch")
	}
	return response.SuccessWithMessage(c, "Branch deleted successfully", nil)
}

func (h *CourseHandler) fail(c *fiber.Ctx, err error, notFound, fallback string) error {
	switch {
	case errors.Is(err, taxonomy.ErrNotFound):
		return response.NotFound(c, notFound)
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
