package model

import (
	"time"
)

// Course represents a taught unit identified by a unique code
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"` // e.g., "CS101"
	Image     string    `json:"image,omitempty"`                  // relative path in the file store
	Status    int       `gorm:"not null;default:1" json:"status"` // 0 = inactive, 1 = active

	// Derived, not persisted
	ImageURL string `gorm:"-" json:"image_url,omitempty"`

	// Relationships. Deleting a course intentionally does not cascade to
	// these rows; see the orphan sweep job for file-side cleanup.
	Contents    []CourseContent `gorm:"foreignKey:CourseID" json:"contents,omitempty"`
	Assignments []CourseAssign  `gorm:"foreignKey:CourseID" json:"-"`
	Results     []Result        `gorm:"foreignKey:CourseID" json:"-"`
}

// CourseSummary is the reduced course shape embedded in joined responses.
type CourseSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Summary returns the joined-response shape of the course.
func (c *Course) Summary() CourseSummary {
	return CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code}
}
