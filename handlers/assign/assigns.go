package assign

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/response"
	"github.com/ucmsdev/ucms-api/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssignHandler handles course assignment requests. Every route is
// admin-only; the role guard runs in middleware before these bodies.
type AssignHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAssignHandler creates a new assignment handler
func NewAssignHandler(db *gorm.DB) *AssignHandler {
	return &AssignHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// AssignRequest represents the request body for creating/updating an assignment
type AssignRequest struct {
	CourseID uint   `json:"course_id" validate:"required,min=1"`
	UserID   uint   `json:"user_id" validate:"required,min=1"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AssignResponse is an assignment row joined with course and user summaries
type AssignResponse struct {
	ID       uint                `json:"id"`
	CourseID uint                `json:"course_id"`
	UserID   uint                `json:"user_id"`
	Date     *datatypes.Date     `json:"date,omitempty"`
	Course   model.CourseSummary `json:"course"`
	User     model.UserSummary   `json:"user"`
}

func toAssignResponse(a *model.CourseAssign) AssignResponse {
	return AssignResponse{
		ID:       a.ID,
		CourseID: a.CourseID,
		UserID:   a.UserID,
		Date:     a.Date,
		Course:   a.Course.Summary(),
		User:     a.User.Summary(),
	}
}

// resolveRefs verifies the referenced course and user rows exist. Missing
// references are validation failures, mirroring the request-level checks.
func (h *AssignHandler) resolveRefs(req AssignRequest) error {
	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		return errors.New("course_id does not reference an existing course")
	}
	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		return errors.New("user_id does not reference an existing user")
	}
	return nil
}

func parseDate(s string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}

// ListAssigns handles GET /assigns
func (h *AssignHandler) ListAssigns(c *fiber.Ctx) error {
	var assigns []model.CourseAssign
	if err := h.db.Preload("Course").Preload("User").
		Order("id DESC").
		Find(&assigns).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch assignments")
	}

	out := make([]AssignResponse, 0, len(assigns))
	for i := range assigns {
		out = append(out, toAssignResponse(&assigns[i]))
	}

	return response.Success(c, out)
}

// Options handles GET /assigns/options: the course and student lists an
// assignment form needs.
func (h *AssignHandler) Options(c *fiber.Ctx) error {
	var courses []model.CourseSummary
	if err := h.db.Model(&model.Course{}).
		Select("id", "name", "code").
		Order("name").
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	var students []model.UserSummary
	if err := h.db.Model(&model.User{}).
		Select("id", "name", "email").
		Where("role = ?", model.RoleStudent).
		Order("name").
		Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.Success(c, fiber.Map{
		"courses":  courses,
		"students": students,
	})
}

// CreateAssign handles POST /assigns/store
func (h *AssignHandler) CreateAssign(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if err := h.resolveRefs(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Prevent duplicate assignment of the same (course, user) pair
	var count int64
	h.db.Model(&model.CourseAssign{}).
		Where("course_id = ? AND user_id = ?", req.CourseID, req.UserID).
		Count(&count)
	if count > 0 {
		return response.Conflict(c, "Student is already assigned to this course")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return response.ValidationError(c, err)
	}

	assign := model.CourseAssign{
		CourseID: req.CourseID,
		UserID:   req.UserID,
		Date:     date,
	}

	// The unique index backs up the pre-check for concurrent creates
	if err := h.db.Create(&assign).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Student is already assigned to this course")
		}
		return response.InternalServerError(c, "Failed to create assignment")
	}

	h.db.Preload("Course").Preload("User").First(&assign, assign.ID)
	return response.Created(c, toAssignResponse(&assign))
}

// UpdateAssign handles PUT /assigns/update/:id
func (h *AssignHandler) UpdateAssign(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Assignment not found")
	}

	var assign model.CourseAssign
	if err := h.db.First(&assign, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if err := h.resolveRefs(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Another row may not already hold the target pair; keeping its own
	// pair is fine.
	var count int64
	h.db.Model(&model.CourseAssign{}).
		Where("course_id = ? AND user_id = ? AND id != ?", req.CourseID, req.UserID, assign.ID).
		Count(&count)
	if count > 0 {
		return response.Conflict(c, "Student is already assigned to this course")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return response.ValidationError(c, err)
	}

	assign.CourseID = req.CourseID
	assign.UserID = req.UserID
	assign.Date = date

	if err := h.db.Save(&assign).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Student is already assigned to this course")
		}
		return response.InternalServerError(c, "Failed to update assignment")
	}

	h.db.Preload("Course").Preload("User").First(&assign, assign.ID)
	return response.SuccessWithMessage(c, "Assignment updated successfully", toAssignResponse(&assign))
}

// DeleteAssign handles DELETE /assigns/delete/:id
func (h *AssignHandler) DeleteAssign(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Assignment not found")
	}

	var assign model.CourseAssign
	if err := h.db.First(&assign, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	if err := h.db.Delete(&assign).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete assignment")
	}

	return response.SuccessWithMessage(c, "Assignment deleted successfully", nil)
}
