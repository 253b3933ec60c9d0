package submission

import (
	"errors"

	"github.com/campusconnect/api/services/submission"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler accepts documents and service listings for review. Routes
// use optional auth so the pipeline, not the middleware, answers anonymous
// callers.
type SubmissionHandler struct {
	pipeline    *submission.Pipeline
	maxUploadMB int
	log         *utils.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(pipeline *submission.Pipeline, maxUploadMB int, log *utils.Logger) *SubmissionHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &SubmissionHandler{pipeline: pipeline, maxUploadMB: maxUploadMB, log: log}
}

// SubmitDocument handles POST /api/v1/submissions/documents (multipart: file,
// university_id, course_id, branch, year, type)
func (h *SubmissionHandler) SubmitDocument(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor == nil {
		return response.Unauthorized(c, submission.MsgLoginToUpload)
	}

	var in submission.DocumentInput
	if err := c.BodyParser(&in); err != nil {
		return response.ValidationError(c, submission.MsgMissingDocument, nil)
	}

	var file *submission.File
	if header, err := c.FormFile("file"); err == nil {
		src, err := header.Open()
		if err != nil {
			return response.BadRequest(c, "Failed to read uploaded file")
		}
		file, err = submission.ReadFile(header.Filename, src, int64(h.maxUploadMB)*1024*1024)
		_ = src.Close()
		if err != nil {
			return h.fail(c, err, submission.MsgUploadFailed)
		}
	}

	record, err := h.pipeline.SubmitDocument(c.UserContext(), actor, in, file)
	if err != nil {
		return h.fail(c, err, submission.MsgUploadFailed)
	}
	return response.Created(c, submission.MsgDocumentUploaded, record)
}

// SubmitService handles POST /api/v1/submissions/services
func (h *SubmissionHandler) SubmitService(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor == nil {
		return response.Unauthorized(c, submission.MsgSignInToSubmit)
	}

	var in submission.ServiceInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	record, err := h.pipeline.SubmitService(c.UserContext(), actor, in)
	if err != nil {
		return h.fail(c, err, submission.MsgServiceSubmitFail)
	}
	return response.Created(c, submission.MsgServiceSubmitted, record)
}

// ListMine handles GET /api/v1/submissions/mine
func (h *SubmissionHandler) ListMine(c *fiber.Ctx) error {
	mine, err := h.pipeline.ListMine(c.UserContext(), actorFrom(c))
	if err != nil {
		if errors.Is(err, submission.ErrUnauthenticated) {
			return response.Unauthorized(c, "")
		}
		h.log.Error("failed to list submissions", "error", err)
		return response.InternalServerError(c, "Failed to fetch submissions")
	}
	return response.Success(c, mine)
}

func (h *SubmissionHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	var fieldErr *submission.FieldError
	var fileErr *submission.FileError
	switch {
	case errors.Is(err, submission.ErrUnauthenticated):
		return response.Unauthorized(c, submission.MsgLoginToUpload)
	case errors.As(err, &fieldErr):
		return response.ValidationError(c, fieldErr.Message, fieldErr.Fields)
	case errors.As(err, &fileErr):
		return response.ValidationError(c, fileErr.Message, nil)
	case errors.Is(err, submission.ErrUnknownCourse):
		return response.ValidationError(c, "The selected course does not belong to the selected university.", nil)
	default:
		h.log.Error("submission failed", "error", err)
		return response.InternalServerError(c, fallback)
	}
}

func actorFrom(c *fiber.Ctx) *submission.Actor {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return nil
	}
	return &submission.Actor{ID: user.ID, Email: user.Email}
}
