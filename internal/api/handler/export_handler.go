package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/service"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/response"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出课表
// GET /api/v1/schedules/:id/export?format=ics|xlsx
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "ics")
	scheduleID := c.Param("id")

	var (
		buf         interface{ Bytes() []byte }
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "ics":
		buf, filename, err = h.exportSvc.ExportICS(c.Request.Context(), scheduleID, email)
		contentType = contentTypeICS
	case "xlsx":
		buf, filename, err = h.exportSvc.ExportExcel(c.Request.Context(), scheduleID, email)
		contentType = contentTypeXLSX
	default:
		response.BadRequest(c, 14001, "format 仅支持 ics 或 xlsx")
		return
	}
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 14101, "课表不存在")
	case errors.Is(err, service.ErrScheduleForbidden):
		response.Forbidden(c, 14102, "无权导出他人课表")
	case errors.Is(err, service.ErrExportEmptySchedule):
		response.BadRequest(c, 14103, "课表为空，无可导出内容")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
