package model

import "time"

// DocumentType is a flat reference entry used to classify academic materials
// (e.g., "PYQ", "Notes", "Syllabus")
type DocumentType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for DocumentType
func (DocumentType) TableName() string {
	return "document_types"
}

// Year is the static year list. It is independent from the year options
// synthesized from a course's duration and the two are never merged.
type Year struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Year
func (Year) TableName() string {
	return "years"
}

// Area is a geographic reference entry for local services
type Area struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Area
func (Area) TableName() string {
	return "areas"
}
