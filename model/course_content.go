package model

import (
	"time"
)

// ContentType classifies an uploaded content file. It is derived from the
// stored file's MIME type, never supplied by the client.
type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypePDF   ContentType = "pdf"
	ContentTypeVideo ContentType = "video"
	ContentTypeOther ContentType = "other"
)

// CourseContent represents a file attached to a course
type CourseContent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	CourseID  uint        `gorm:"not null;index" json:"course_id"`
	Title     string      `gorm:"not null" json:"title"`
	Path      string      `gorm:"not null" json:"path"` // relative path in the file store
	Type      ContentType `gorm:"type:varchar(10);not null;default:'other'" json:"type"`

	// Derived, not persisted
	ContentURL   string `gorm:"-" json:"content_url,omitempty"`
	ThumbnailURL string `gorm:"-" json:"thumbnail_url,omitempty"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
