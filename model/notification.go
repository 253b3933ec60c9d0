package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType represents the tone of a notification
type NotificationType string

const (
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
)

// NotificationCategory groups notifications by the submission they are about
type NotificationCategory string

const (
	NotificationCategoryMaterialReview NotificationCategory = "material_review"
	NotificationCategoryServiceReview  NotificationCategory = "service_review"
)

// UserNotification tells a submitter what happened to one of their submissions
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Read      bool                 `gorm:"default:false;index" json:"read"`
	Metadata  datatypes.JSON       `json:"metadata,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationMetadata links a notification to the moderated records
type NotificationMetadata struct {
	Collection string `json:"collection"`
	PendingID  uint   `json:"pending_id"`
	PublicID   uint   `json:"public_id,omitempty"`
}
