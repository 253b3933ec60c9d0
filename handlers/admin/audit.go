package admin

import (
	"errors"
	"strconv"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuditHandler exposes the moderation and reference-data audit trail
type AuditHandler struct {
	db  *gorm.DB
	log *utils.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB, log *utils.Logger) *AuditHandler {
	return &AuditHandler{db: db, log: log}
}

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit-logs?action=&resource=&admin_id=
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	page, limit = response.NormalizePage(page, limit)

	scope := func(db *gorm.DB) *gorm.DB {
		if action := c.Query("action"); action != "" {
			db = db.Where("action = ?", action)
		}
		if resource := c.Query("resource"); resource != "" {
			db = db.Where("resource = ?", resource)
		}
		if adminID, err := strconv.ParseUint(c.Query("admin_id"), 10, 64); err == nil {
			db = db.Where("admin_id = ?", adminID)
		}
		return db
	}

	var total int64
	if err := h.db.WithContext(c.UserContext()).Model(&model.AdminAuditLog{}).Scopes(scope).Count(&total).Error; err != nil {
		h.log.Error("failed to count audit logs", "error", err)
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	logs := []model.AdminAuditLog{}
	if err := h.db.WithContext(c.UserContext()).Scopes(scope).
		Preload("Admin").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error; err != nil {
		h.log.Error("failed to list audit logs", "error", err)
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /admin/audit-logs/:id
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	logID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := h.db.WithContext(c.UserContext()).Preload("Admin").First(&entry, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", entry)
}
