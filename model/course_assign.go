package model

import (
	"time"

	"gorm.io/datatypes"
)

// CourseAssign represents a (course, student) enrollment link. The
// (course_id, user_id) pair is unique at the database level so that two
// concurrent creates cannot both slip past the handler's existence check.
type CourseAssign struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	CourseID  uint            `gorm:"not null;uniqueIndex:idx_assign_course_user" json:"course_id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_assign_course_user" json:"user_id"`
	Date      *datatypes.Date `json:"date,omitempty"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
