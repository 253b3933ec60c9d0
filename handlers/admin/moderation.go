package admin

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/moderation"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/sse"
	"github.com/gofiber/fiber/v2"
)

const (
	msgAlreadyModerated = "This item has already been moderated."
	defaultKeepAlive    = 15 * time.Second
)

// ModerationHandler serves the review queue to administrators
type ModerationHandler struct {
	queue     *moderation.Queue
	broker    changefeed.Broker
	log       *utils.Logger
	keepAlive time.Duration
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(queue *moderation.Queue, broker changefeed.Broker, log *utils.Logger) *ModerationHandler {
	return &ModerationHandler{
		queue:     queue,
		broker:    broker,
		log:       log,
		keepAlive: defaultKeepAlive,
	}
}

// ListPendingMaterials handles GET /api/v1/admin/pending/materials
func (h *ModerationHandler) ListPendingMaterials(c *fiber.Ctx) error {
	items, err := h.queue.Materials.ListPending(c.UserContext())
	if err != nil {
		h.log.Error("failed to list pending materials", "error", err)
		return response.InternalServerError(c, "Failed to fetch pending materials")
	}
	return response.Success(c, items)
}

// ListPendingServices handles GET /api/v1/admin/pending/services
func (h *ModerationHandler) ListPendingServices(c *fiber.Ctx) error {
	items, err := h.queue.Services.ListPending(c.UserContext())
	if err != nil {
		h.log.Error("failed to list pending services", "error", err)
		return response.InternalServerError(c, "Failed to fetch pending services")
	}
	return response.Success(c, items)
}

// ApproveMaterial handles POST /api/v1/admin/pending/materials/:id/approve
func (h *ModerationHandler) ApproveMaterial(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}
	approval, err := h.queue.Materials.Approve(c.UserContext(), uint(id), moderatorFrom(c))
	if err != nil {
		return h.fail(c, err, "Failed to approve material")
	}
	return response.SuccessWithMessage(c, "Material approved", approval)
}

// RejectMaterial handles POST /api/v1/admin/pending/materials/:id/reject
func (h *ModerationHandler) RejectMaterial(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}
	if err := h.queue.Materials.Reject(c.UserContext(), uint(id), moderatorFrom(c)); err != nil {
		return h.fail(c, err, "Failed to reject material")
	}
	return response.SuccessWithMessage(c, "Material rejected", nil)
}

// ApproveService handles POST /api/v1/admin/pending/services/:id/approve
func (h *ModerationHandler) ApproveService(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}
	approval, err := h.queue.Services.Approve(c.UserContext(), uint(id), moderatorFrom(c))
	if err != nil {
		return h.fail(c, err, "Failed to approve service")
	}
	return response.SuccessWithMessage(c, "Service approved", approval)
}

// RejectService handles POST /api/v1/admin/pending/services/:id/reject
func (h *ModerationHandler) RejectService(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}
	if err := h.queue.Services.Reject(c.UserContext(), uint(id), moderatorFrom(c)); err != nil {
		return h.fail(c, err, "Failed to reject service")
	}
	return response.SuccessWithMessage(c, "Service rejected", nil)
}

// Stream handles GET /api/v1/admin/moderation/stream. It sends a snapshot of
// both queues on connect and after every change, with keepalive comments in
// between. The subscription ends with the first failed write.
func (h *ModerationHandler) Stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	adminID, _ := middleware.GetUserID(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The request context is gone once the handler returns
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snapshots := make(chan *moderation.Snapshot, 1)
		done := make(chan error, 1)
		go func() {
			done <- h.queue.Watch(ctx, h.broker, func(s *moderation.Snapshot) error {
				select {
				case snapshots <- s:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		h.log.Info("moderation stream opened", "admin_id", adminID)
		defer h.log.Info("moderation stream closed", "admin_id", adminID)

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		seq := 0
		for {
			select {
			case snap := <-snapshots:
				seq++
				if err := sse.SendSnapshot(w, strconv.Itoa(seq), snap); err != nil {
					return
				}
			case <-ticker.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return
				}
			case err := <-done:
				if err != nil && !errors.Is(err, context.Canceled) {
					h.log.Error("moderation stream failed", "admin_id", adminID, "error", err)
					_ = sse.SendError(w, errors.New("moderation queue unavailable"))
				}
				return
			}
		}
	})

	return nil
}

func (h *ModerationHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, moderation.ErrNotPending) {
		return response.Conflict(c, msgAlreadyModerated)
	}
	h.log.Error(fallback, "error", err)
	return response.InternalServerError(c, fallback)
}

func moderatorFrom(c *fiber.Ctx) moderation.Moderator {
	m := moderation.Moderator{IPAddress: c.IP()}
	if user, ok := middleware.GetUser(c); ok {
		m.ID = user.ID
		m.Email = user.Email
	}
	return m
}
