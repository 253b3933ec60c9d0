package resume

import (
	"errors"
	"strconv"

	"github.com/campusconnect/api/services/resume"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// ResumeHandler renders resumes to PDF
type ResumeHandler struct {
	service   *resume.Service
	validator *validation.Validator
	log       *utils.Logger
}

// NewResumeHandler creates a new resume handler
func NewResumeHandler(service *resume.Service, log *utils.Logger) *ResumeHandler {
	return &ResumeHandler{
		service:   service,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// GeneratePDF handles POST /api/v1/resume/pdf. The response body is the PDF;
// X-Resume-Watermarked tells the client whether the free watermark was
// applied.
func (h *ResumeHandler) GeneratePDF(c *fiber.Ctx) error {
	var req resume.Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "Please fill in your resume details.", validation.FormatValidationErrors(err))
	}

	result, err := h.service.Generate(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, resume.ErrEmptyResume) {
			return response.ValidationError(c, "Please fill in your resume details.", nil)
		}
		h.log.Error("resume rendering failed", "error", err)
		return response.InternalServerError(c, "Failed to generate PDF")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="resume.pdf"`)
	c.Set("X-Resume-Watermarked", strconv.FormatBool(result.Watermarked))
	return c.Status(fiber.StatusOK).Send(result.PDF)
}
