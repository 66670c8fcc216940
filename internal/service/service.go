package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/upstream"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Catalog  CatalogService
	Course   CourseService
	Schedule ScheduleService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	client upstream.CatalogClient,
	rdb *redis.Client,
	location *time.Location,
	logger *zap.Logger,
) *Service {
	return &Service{
		Catalog:  NewCatalogService(repo, client, rdb, cfg.Sync, logger),
		Course:   NewCourseService(repo, cfg.Sync, logger),
		Schedule: NewScheduleService(repo, logger),
		Export:   NewExportService(repo, location, logger),
	}
}
