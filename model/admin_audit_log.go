package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded by moderation and taxonomy maintenance
const (
	AuditActionApprove = "approve"
	AuditActionReject  = "reject"
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
)

// AdminAuditLog represents audit trail for admin actions
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	AdminEmail  string         `gorm:"type:varchar(512)" json:"admin_email"`
	Action      string         `gorm:"type:varchar(100);not null" json:"action"` // e.g., "approve", "reject"
	Resource    string         `gorm:"type:varchar(100);index" json:"resource"`  // e.g., "pending_local_services"
	ResourceID  uint           `json:"resource_id"`
	TargetID    uint           `json:"target_id,omitempty"` // Public record created by an approval
	Snapshot    datatypes.JSON `json:"snapshot"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`

	// Relationships
	Admin *User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
