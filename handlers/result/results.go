package result

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/middleware"
	"github.com/ucmsdev/ucms-api/utils/response"
	"github.com/ucmsdev/ucms-api/utils/validation"
	"gorm.io/gorm"
)

// ResultHandler handles exam result requests
type ResultHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewResultHandler creates a new result handler
func NewResultHandler(db *gorm.DB) *ResultHandler {
	return &ResultHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ResultRequest represents the request body for creating/updating a result.
// There is deliberately no uniqueness rule on (course_id, user_id, test_no);
// a student can carry two rows for the same test number.
type ResultRequest struct {
	CourseID uint   `json:"course_id" validate:"required,min=1"`
	UserID   uint   `json:"user_id" validate:"required,min=1"`
	TestNo   int    `json:"test_no" validate:"required,min=1"`
	Grade    string `json:"grade" validate:"required,max=2"`
}

// ResultResponse is a result row joined with course and user summaries
type ResultResponse struct {
	ID       uint                `json:"id"`
	CourseID uint                `json:"course_id"`
	UserID   uint                `json:"user_id"`
	TestNo   int                 `json:"test_no"`
	Grade    string              `json:"grade"`
	Course   model.CourseSummary `json:"course"`
	User     model.UserSummary   `json:"user"`
}

func toResultResponse(r *model.Result) ResultResponse {
	return ResultResponse{
		ID:       r.ID,
		CourseID: r.CourseID,
		UserID:   r.UserID,
		TestNo:   r.TestNo,
		Grade:    r.Grade,
		Course:   r.Course.Summary(),
		User:     r.User.Summary(),
	}
}

func (h *ResultHandler) resolveRefs(req ResultRequest) error {
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

// ListResults handles GET /results: admins see everything, students only
// their own rows.
func (h *ResultHandler) ListResults(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	query := h.db.Preload("Course").Preload("User").Order("id DESC")
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}

	var results []model.Result
	if err := query.Find(&results).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch results")
	}

	out := make([]ResultResponse, 0, len(results))
	for i := range results {
		out = append(out, toResultResponse(&results[i]))
	}

	return response.Success(c, out)
}

// Options handles GET /results/options. Admins get every student; a student
// only gets themself.
func (h *ResultHandler) Options(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var courses []model.CourseSummary
	if err := h.db.Model(&model.Course{}).
		Select("id", "name", "code").
		Order("name").
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	studentQuery := h.db.Model(&model.User{})
	if user.IsAdmin() {
		studentQuery = studentQuery.Where("role = ?", model.RoleStudent).Order("name")
	} else {
		studentQuery = studentQuery.Where("id = ?", user.ID)
	}

	var students []model.UserSummary
	if err := studentQuery.Select("id", "name", "email").Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.Success(c, fiber.Map{
		"courses":  courses,
		"students": students,
	})
}

// StoreResult handles POST /results/store
func (h *ResultHandler) StoreResult(c *fiber.Ctx) error {
	var req ResultRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if err := h.resolveRefs(req); err != nil {
		return response.ValidationError(c, err)
	}

	result := model.Result{
		CourseID: req.CourseID,
		UserID:   req.UserID,
		TestNo:   req.TestNo,
		Grade:    req.Grade,
	}

	if err := h.db.Create(&result).Error; err != nil {
		return response.InternalServerError(c, "Failed to create result")
	}

	h.db.Preload("Course").Preload("User").First(&result, result.ID)
	return response.Created(c, toResultResponse(&result))
}

// ShowResult handles GET /results/show/:id, visible to admins and the
// result's owner.
func (h *ResultHandler) ShowResult(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Result not found")
	}

	var result model.Result
	if err := h.db.Preload("Course").Preload("User").First(&result, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Result not found")
		}
		return response.InternalServerError(c, "Failed to fetch result")
	}

	if !user.IsAdmin() && result.UserID != user.ID {
		return response.Forbidden(c, "You may only view your own results")
	}

	return response.Success(c, toResultResponse(&result))
}

// UpdateResult handles PUT /results/update/:id
func (h *ResultHandler) UpdateResult(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Result not found")
	}

	var result model.Result
	if err := h.db.First(&result, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Result not found")
		}
		return response.InternalServerError(c, "Failed to fetch result")
	}

	var req ResultRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if err := h.resolveRefs(req); err != nil {
		return response.ValidationError(c, err)
	}

	result.CourseID = req.CourseID
	result.UserID = req.UserID
	result.TestNo = req.TestNo
	result.Grade = req.Grade

	if err := h.db.Save(&result).Error; err != nil {
		return response.InternalServerError(c, "Failed to update result")
	}

	h.db.Preload("Course").Preload("User").First(&result, result.ID)
	return response.SuccessWithMessage(c, "Result updated successfully", toResultResponse(&result))
}

// DestroyResult handles DELETE /results/delete/:id
func (h *ResultHandler) DestroyResult(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Result not found")
	}

	var result model.Result
	if err := h.db.First(&result, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Result not found")
		}
		return response.InternalServerError(c, "Failed to fetch result")
	}

	if err := h.db.Delete(&result).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete result")
	}

	return response.SuccessWithMessage(c, "Result deleted successfully", nil)
}
