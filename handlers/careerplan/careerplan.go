package careerplan

import (
	"errors"

	"github.com/campusconnect/api/services/careerplan"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// CareerPlanHandler generates career plans for signed-in students
type CareerPlanHandler struct {
	generator *careerplan.Generator
	validator *validation.Validator
}

// NewCareerPlanHandler creates a new career plan handler
func NewCareerPlanHandler(generator *careerplan.Generator) *CareerPlanHandler {
	return &CareerPlanHandler{
		generator: generator,
		validator: validation.NewValidator(),
	}
}

// PlanResponse carries the generated markdown plan
type PlanResponse struct {
	Plan string `json:"plan"`
}

// Generate handles POST /api/v1/career-plan
func (h *CareerPlanHandler) Generate(c *fiber.Ctx) error {
	var profile careerplan.Profile
	if err := c.BodyParser(&profile); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(profile); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	plan, err := h.generator.Generate(c.UserContext(), profile)
	switch {
	case err == nil:
		return response.Success(c, PlanResponse{Plan: plan})
	case errors.Is(err, careerplan.ErrEmptyProfile):
		return response.ValidationError(c, "Please fill in at least one field.", nil)
	case errors.Is(err, careerplan.ErrNotConfigured):
		return response.ServiceUnavailable(c, careerplan.MsgGenerationFailed)
	default:
		return response.BadGateway(c, careerplan.MsgGenerationFailed)
	}
}
