package selector

import (
	"github.com/campusconnect/api/services/selector"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// SelectorHandler applies selection events to a client-held selector state
type SelectorHandler struct {
	machine   *selector.Machine
	validator *validation.Validator
}

// NewSelectorHandler creates a new selector handler
func NewSelectorHandler(machine *selector.Machine) *SelectorHandler {
	return &SelectorHandler{
		machine:   machine,
		validator: validation.NewValidator(),
	}
}

// TransitionRequest carries the current state and one event. A missing
// state starts from the initial state.
type TransitionRequest struct {
	State *selector.State `json:"state"`
	Event selector.Event  `json:"event" validate:"required"`
}

// Transition handles POST /api/v1/selector/transition
func (h *SelectorHandler) Transition(c *fiber.Ctx) error {
	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	state := selector.NewState()
	if req.State != nil {
		state = *req.State
	}

	next, err := h.machine.Apply(c.UserContext(), state, req.Event)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	return response.Success(c, next)
}
