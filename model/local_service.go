package model

import "time"

// ServiceFields is the shape shared by pending and public local services
type ServiceFields struct {
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Contact       string    `gorm:"type:varchar(100);not null" json:"contact"`
	Address       string    `gorm:"type:text;not null" json:"address"`
	Area          string    `gorm:"type:varchar(255);not null;index" json:"area"`
	Category      string    `gorm:"type:varchar(100);not null" json:"category"`
	SubmittedBy   string    `gorm:"type:varchar(512);not null" json:"submitted_by"`
	SubmittedByID uint      `gorm:"index" json:"submitted_by_id"`
	SubmittedAt   time.Time `gorm:"not null" json:"submitted_at"`
}

// PendingLocalService is a submitted service listing awaiting moderation
type PendingLocalService struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	ServiceFields `gorm:"embedded"`
	Status        SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName specifies the table name for PendingLocalService
func (PendingLocalService) TableName() string {
	return "pending_local_services"
}

// Promote builds the public record for an approved listing
func (p PendingLocalService) Promote(approvedBy string, approvedAt time.Time) LocalService {
	return LocalService{
		ServiceFields: p.ServiceFields,
		Status:        StatusApproved,
		ApprovedBy:    approvedBy,
		ApprovedAt:    approvedAt,
	}
}

// LocalService is a moderated, publicly searchable service listing
type LocalService struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	ServiceFields `gorm:"embedded"`
	Status        SubmissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	ApprovedBy    string           `gorm:"type:varchar(512);not null" json:"approved_by"`
	ApprovedAt    time.Time        `gorm:"not null;index" json:"approved_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName specifies the table name for LocalService
func (LocalService) TableName() string {
	return "local_services"
}
