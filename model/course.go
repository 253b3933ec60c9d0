package model

import "time"

// Course represents an academic program offered by a university (e.g., B.Tech, MCA)
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	Name         string    `gorm:"not null" json:"name"`
	Duration     int       `gorm:"default:0" json:"duration"` // Duration in academic years

	// Relationships
	University *University `gorm:"foreignKey:UniversityID;constraint:OnDelete:RESTRICT" json:"university,omitempty"`
	Branches   []Branch    `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"branches,omitempty"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// Branch is a specialisation within a course. Rows with an empty name are
// kept in storage but never offered as options.
type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`

	// Relationships
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
}

// TableName specifies the table name for Branch
func (Branch) TableName() string {
	return "branches"
}
