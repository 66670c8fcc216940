package handler

import "github.com/hyecheol123/CollegeMate-Schedule-API/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Catalog  *CatalogHandler
	Schedule *ScheduleHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Catalog:  NewCatalogHandler(svc.Catalog, svc.Course),
		Schedule: NewScheduleHandler(svc.Schedule),
		Export:   NewExportHandler(svc.Export),
	}
}
