package model

import "time"

// University is the root of the academic taxonomy
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Courses []Course `gorm:"foreignKey:UniversityID;constraint:OnDelete:RESTRICT" json:"courses,omitempty"`
}

// TableName specifies the table name for University
func (University) TableName() string {
	return "universities"
}
