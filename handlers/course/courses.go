package course

import (
	"errors"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/middleware"
	"github.com/ucmsdev/ucms-api/utils/response"
	"github.com/ucmsdev/ucms-api/utils/storage"
	"github.com/ucmsdev/ucms-api/utils/validation"
	"gorm.io/gorm"
)

// maxImageSize caps course image uploads at 2MB
const maxImageSize = 2 * 1024 * 1024

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".svg":  true,
}

// CourseHandler handles course-related requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	files     *storage.Store
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, files *storage.Store) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
		files:     files,
	}
}

// courseRequest represents the multipart fields for create/update
type courseRequest struct {
	Name   string `validate:"required,max=255"`
	Code   string `validate:"required,max=50"`
	Status string `validate:"required,oneof=0 1"`
}

func (h *CourseHandler) parseRequest(c *fiber.Ctx) courseRequest {
	return courseRequest{
		Name:   validation.SanitizeString(c.FormValue("name")),
		Code:   validation.SanitizeString(c.FormValue("code")),
		Status: c.FormValue("status"),
	}
}

// validateImage checks the optional course image against the allowed
// extensions and the 2MB cap. Returns nil when no image was sent.
func validateImage(c *fiber.Ctx) (*multipart.FileHeader, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return nil, errors.New("image must be a jpeg, png, jpg, gif or svg file")
	}
	if file.Size > maxImageSize {
		return nil, errors.New("image must not exceed 2MB")
	}

	return file, nil
}

func (h *CourseHandler) decorate(course *model.Course) {
	course.ImageURL = h.files.PublicURL(course.Image)
}

// ListCourses handles GET /courses. Admins see every course; students only
// the ones they are assigned to.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var courses []model.Course
	query := h.db.Model(&model.Course{}).Order("courses.id")
	if !user.IsAdmin() {
		query = query.
			Joins("JOIN course_assigns ON course_assigns.course_id = courses.id").
			Where("course_assigns.user_id = ?", user.ID)
	}

	if err := query.Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	for i := range courses {
		h.decorate(&courses[i])
	}

	return response.Success(c, courses)
}

// CreateCourse handles POST /courses/store (multipart: name, code, image?, status)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	req := h.parseRequest(c)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	image, err := validateImage(c)
	if err != nil {
		return response.ValidationError(c, err)
	}

	// Check if course with same code already exists
	var existing model.Course
	if err := h.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return response.Conflict(c, "Course with this code already exists")
	}

	course := model.Course{
		Name:   req.Name,
		Code:   req.Code,
		Status: int(req.Status[0] - '0'),
	}

	if image != nil {
		relPath, err := h.files.Save(storage.CourseImageDir, image)
		if err != nil {
			return response.InternalServerError(c, "Failed to store course image")
		}
		course.Image = relPath
	}

	if err := h.db.Create(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Course with this code already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}

	h.decorate(&course)
	return response.Created(c, course)
}

// UpdateCourse handles PUT /courses/update/:id, a full-field replace
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
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

	req := h.parseRequest(c)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	image, err := validateImage(c)
	if err != nil {
		return response.ValidationError(c, err)
	}

	// Check if code is already used by another course
	var existing model.Course
	if err := h.db.Where("code = ? AND id != ?", req.Code, course.ID).First(&existing).Error; err == nil {
		return response.Conflict(c, "Course with this code already exists")
	}

	course.Name = req.Name
	course.Code = req.Code
	course.Status = int(req.Status[0] - '0')

	if image != nil {
		// Best-effort removal of the replaced file; never fails the update
		if err := h.files.Remove(course.Image); err != nil {
			log.Printf("course %d: failed to remove old image %s: %v", course.ID, course.Image, err)
		}
		relPath, err := h.files.Save(storage.CourseImageDir, image)
		if err != nil {
			return response.InternalServerError(c, "Failed to store course image")
		}
		course.Image = relPath
	}

	if err := h.db.Save(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Course with this code already exists")
		}
		return response.InternalServerError(c, "Failed to update course")
	}

	h.decorate(&course)
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /courses/delete/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
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

	// Best-effort file cleanup before the row goes away
	if err := h.files.Remove(course.Image); err != nil {
		log.Printf("course %d: failed to remove image %s: %v", course.ID, course.Image, err)
	}

	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
