package model

import "time"

// MaterialFields is the shape shared by pending and public academic materials.
// University and course are stored by id; branch, year and type are the
// denormalized names chosen at submission time.
type MaterialFields struct {
	UniversityID  uint      `gorm:"not null;index" json:"university_id"`
	CourseID      uint      `gorm:"not null;index" json:"course_id"`
	Branch        string    `gorm:"type:varchar(255);not null;index" json:"branch"`
	Year          string    `gorm:"type:varchar(50);not null;index" json:"year"`
	Type          string    `gorm:"type:varchar(100);not null;index" json:"type"`
	FileURL       string    `gorm:"type:text;not null" json:"file_url"`
	FileName      string    `gorm:"type:varchar(512);not null" json:"file_name"`
	FileKey       string    `gorm:"type:varchar(1024);not null;index" json:"file_key"` // Blob store key
	FileSize      int64     `gorm:"default:0" json:"file_size"`
	SubmittedBy   string    `gorm:"type:varchar(512);not null" json:"submitted_by"` // Submitter email
	SubmittedByID uint      `gorm:"index" json:"submitted_by_id"`
	SubmittedAt   time.Time `gorm:"not null" json:"submitted_at"`
}

// PendingAcademicMaterial is a submitted document awaiting moderation
type PendingAcademicMaterial struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	MaterialFields `gorm:"embedded"`
	Status         SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for PendingAcademicMaterial
func (PendingAcademicMaterial) TableName() string {
	return "pending_academic_materials"
}

// Promote builds the public record for an approved submission. The public
// record gets its own identity; the pending id is not carried over.
func (p PendingAcademicMaterial) Promote(approvedBy string, approvedAt time.Time) AcademicMaterial {
	return AcademicMaterial{
		MaterialFields: p.MaterialFields,
		Status:         StatusApproved,
		ApprovedBy:     approvedBy,
		ApprovedAt:     approvedAt,
	}
}

// AcademicMaterial is a moderated, publicly searchable document
type AcademicMaterial struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	MaterialFields `gorm:"embedded"`
	Status         SubmissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	ApprovedBy     string           `gorm:"type:varchar(512);not null" json:"approved_by"`
	ApprovedAt     time.Time        `gorm:"not null;index" json:"approved_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for AcademicMaterial
func (AcademicMaterial) TableName() string {
	return "academic_materials"
}
