package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/dto"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/service"
	pkgerrors "github.com/hyecheol123/CollegeMate-Schedule-API/pkg/errors"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateSchedule 创建学期课表
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), email, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// ListSchedules 获取本人全部课表
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	list, err := h.scheduleSvc.ListByOwner(c.Request.Context(), email)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"scheduleList": list})
}

// GetSchedule 获取课表详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetByID(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除课表
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("id"), email); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddEvent 添加自定义日程
// POST /api/v1/schedules/:id/events
func (h *ScheduleHandler) AddEvent(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.AddEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.AddEvent(c.Request.Context(), c.Param("id"), email, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// UpdateEvent 编辑自定义日程（部分字段）
// PATCH /api/v1/schedules/:id/events/:eventId
func (h *ScheduleHandler) UpdateEvent(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.UpdateEvent(c.Request.Context(), c.Param("id"), c.Param("eventId"), email, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// RemoveEvent 删除自定义日程
// DELETE /api/v1/schedules/:id/events/:eventId
func (h *ScheduleHandler) RemoveEvent(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.RemoveEvent(c.Request.Context(), c.Param("id"), c.Param("eventId"), email)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// AddSession 挂接目录教学班
// POST /api/v1/schedules/:id/sessions
func (h *ScheduleHandler) AddSession(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.AddScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.AddSession(c.Request.Context(), c.Param("id"), email, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// RemoveSession 移除目录教学班
// DELETE /api/v1/schedules/:id/sessions/:sessionId
func (h *ScheduleHandler) RemoveSession(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.RemoveSession(c.Request.Context(), c.Param("id"), c.Param("sessionId"), email)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 13101, "课表不存在")
	case errors.Is(err, service.ErrScheduleForbidden):
		response.Forbidden(c, 13102, "无权操作他人课表")
	case errors.Is(err, service.ErrScheduleAlreadyExists):
		response.Conflict(c, 13103, "该学期已存在课表")
	case errors.Is(err, service.ErrScheduleTimeConflict):
		response.Conflict(c, 13104, "与现有日程时间冲突")
	case errors.Is(err, service.ErrScheduleEventNotFound):
		response.NotFound(c, 13105, "日程不存在")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 13106, "教学班不存在")
	case errors.Is(err, service.ErrScheduleSessionExists):
		response.Conflict(c, 13107, "该教学班已在课表中")
	case errors.Is(err, service.ErrScheduleSessionMissing):
		response.NotFound(c, 13108, "课表中不存在该教学班")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13109, "课表已被并发修改，请重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/schedule_handler.go
