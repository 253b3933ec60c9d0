package notification

import (
	"errors"
	"strconv"

	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notifications *notification.Service
	log           *utils.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *notification.Service, log *utils.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// GetNotifications handles GET /api/v1/notifications
// Returns the caller's moderation notices, newest first
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	page, err := h.notifications.List(c.UserContext(), user.ID, notification.ListOptions{
		UnreadOnly: c.QueryBool("unread_only"),
		Category:   c.Query("category"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.log.Error("failed to list notifications", "user_id", user.ID, "error", err)
		return response.InternalServerError(c, "Failed to fetch notifications")
	}
	return response.Success(c, page)
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notifications.UnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get unread count")
	}
	return response.Success(c, fiber.Map{"unread_count": count})
}

// MarkAsRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifications.MarkAsRead(c.UserContext(), uint(id), user.ID); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to mark notification as read")
	}
	return response.SuccessWithMessage(c, "Notification marked as read", nil)
}

// MarkAllAsRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notifications.MarkAllAsRead(c.UserContext(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to mark all notifications as read")
	}
	return response.SuccessWithMessage(c, "All notifications marked as read", fiber.Map{"count": count})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifications.Delete(c.UserContext(), uint(id), user.ID); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to delete notification")
	}
	return response.SuccessWithMessage(c, "Notification deleted", nil)
}

// DeleteAllNotifications handles DELETE /api/v1/notifications
func (h *NotificationHandler) DeleteAllNotifications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notifications.DeleteAll(c.UserContext(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to delete all notifications")
	}
	return response.SuccessWithMessage(c, "All notifications deleted", fiber.Map{"count": count})
}
