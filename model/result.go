package model

import (
	"time"
)

// Result represents a graded test record for a student in a course.
// Unlike CourseAssign there is no uniqueness constraint on
// (course_id, user_id, test_no): a student may carry two "Test 1" rows
// for the same course.
type Result struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TestNo    int       `gorm:"not null" json:"test_no"`
	Grade     string    `gorm:"type:varchar(2);not null" json:"grade"` // e.g., A, A+, B

	// Relationships
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
