package content

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/response"
	"github.com/ucmsdev/ucms-api/utils/storage"
	"github.com/ucmsdev/ucms-api/utils/validation"
	"gorm.io/gorm"
)

// maxContentSize caps content uploads at 20MB
const maxContentSize = 20 * 1024 * 1024

// ContentHandler handles course content requests
type ContentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	files     *storage.Store
}

// NewContentHandler creates a new content handler
func NewContentHandler(db *gorm.DB, files *storage.Store) *ContentHandler {
	return &ContentHandler{
		db:        db,
		validator: validation.NewValidator(),
		files:     files,
	}
}

func (h *ContentHandler) decorate(content *model.CourseContent) {
	content.ContentURL = h.files.PublicURL(content.Path)
	switch content.Type {
	case model.ContentTypeImage:
		content.ThumbnailURL = content.ContentURL
	case model.ContentTypePDF:
		content.ThumbnailURL = h.files.PublicURL("images/icons/pdf.png")
	case model.ContentTypeVideo:
		content.ThumbnailURL = h.files.PublicURL("images/icons/video.png")
	default:
		content.ThumbnailURL = h.files.PublicURL("images/icons/file.png")
	}
}

// ListForCourse handles GET /courses/content/:id
func (h *ContentHandler) ListForCourse(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Course not found")
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var contents []model.CourseContent
	if err := h.db.Where("course_id = ?", course.ID).Order("id").Find(&contents).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch contents")
	}

	for i := range contents {
		h.decorate(&contents[i])
	}

	return response.Success(c, contents)
}

// AddContent handles POST /add-content/:id (multipart: title, file)
func (h *ContentHandler) AddContent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Course not found")
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	title := validation.SanitizeString(c.FormValue("title"))
	if title == "" {
		return response.ValidationError(c, errTitleRequired)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, errFileRequired)
	}
	if file.Size > maxContentSize {
		return response.ValidationError(c, errFileTooLarge)
	}

	relPath, err := h.files.Save(storage.ContentDir(course.ID), file)
	if err != nil {
		return response.InternalServerError(c, "Failed to store file")
	}

	// Type is sniffed from the stored bytes, never the client's filename
	content := model.CourseContent{
		CourseID: course.ID,
		Title:    title,
		Path:     relPath,
		Type:     h.files.Classify(relPath),
	}

	if err := h.db.Create(&content).Error; err != nil {
		return response.InternalServerError(c, "Failed to create content")
	}

	h.decorate(&content)
	return response.Created(c, content)
}

// UpdateContent handles PUT /update-content/:id. Without a file only the
// title changes; with one the stored file is replaced and reclassified.
func (h *ContentHandler) UpdateContent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Content not found")
	}

	var content model.CourseContent
	if err := h.db.First(&content, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to fetch content")
	}

	title := validation.SanitizeString(c.FormValue("title"))
	if title == "" {
		return response.ValidationError(c, errTitleRequired)
	}
	content.Title = title

	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxContentSize {
			return response.ValidationError(c, errFileTooLarge)
		}

		if err := h.files.Remove(content.Path); err != nil {
			log.Printf("content %d: failed to remove old file %s: %v", content.ID, content.Path, err)
		}

		relPath, err := h.files.Save(storage.ContentDir(content.CourseID), file)
		if err != nil {
			return response.InternalServerError(c, "Failed to store file")
		}
		content.Path = relPath
		content.Type = h.files.Classify(relPath)
	}

	if err := h.db.Save(&content).Error; err != nil {
		return response.InternalServerError(c, "Failed to update content")
	}

	h.decorate(&content)
	return response.SuccessWithMessage(c, "Content updated successfully", content)
}

// DeleteContent handles DELETE /delete-content/:id
func (h *ContentHandler) DeleteContent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Content not found")
	}

	var content model.CourseContent
	if err := h.db.First(&content, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to fetch content")
	}

	if err := h.files.Remove(content.Path); err != nil {
		log.Printf("content %d: failed to remove file %s: %v", content.ID, content.Path, err)
	}

	if err := h.db.Delete(&content).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete content")
	}

	return response.SuccessWithMessage(c, "Content deleted successfully", nil)
}
