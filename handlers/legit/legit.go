package legit

import (
	"context"
	"errors"

	"github.com/campusconnect/api/services/legit"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// Checker looks up a company's legitimacy report
type Checker interface {
	Check(ctx context.Context, name string) (*legit.Report, error)
}

// LegitHandler serves company legitimacy checks
type LegitHandler struct {
	checker Checker
}

// NewLegitHandler creates a new legitimacy handler
func NewLegitHandler(checker Checker) *LegitHandler {
	return &LegitHandler{checker: checker}
}

// Check handles GET /api/v1/legit/check?name=
func (h *LegitHandler) Check(c *fiber.Ctx) error {
	report, err := h.checker.Check(c.UserContext(), c.Query("name"))
	if err != nil {
		var upstream *legit.UpstreamError
		switch {
		case errors.Is(err, legit.ErrInvalidName):
			return response.BadRequest(c, legit.MsgInvalidName)
		case errors.As(err, &upstream):
			return response.BadGateway(c, upstream.Message)
		default:
			return response.InternalServerError(c, "Failed to check company")
		}
	}
	return response.Success(c, report)
}
