package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visit-sync/backend/config"
	"visit-sync/backend/internal/api/handler"
	"visit-sync/backend/internal/api/middleware"
	"visit-sync/backend/pkg/jwt"
	"visit-sync/backend/pkg/redis"
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
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB：管理 API 只收小 JSON

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要服务令牌）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.ServiceAuth(jwtMgr))
	{
		// 同步触发模块
		// 每次触发都会抓取教务门户，限制触发频率
		sync := v1.Group("/sync")
		sync.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			sync.POST("", h.Sync.SyncAll)
			sync.POST("/groups/:id", h.Sync.SyncGroup)
			sync.POST("/teachers/:id", h.Sync.SyncTeacher)
		}

		// 教师与名册模块
		teachers := v1.Group("/teachers")
		{
			teachers.GET("/:id/groups", h.Roster.ListGroups)
			teachers.POST("/:id/roster/refresh", middleware.RateLimit(rdb, 10, time.Minute), h.Roster.RefreshRoster)
		}

		// 分组考勤模块
		groups := v1.Group("/groups")
		{
			groups.GET("/:id/students", h.Roster.ListStudents)
			groups.GET("/:id/absences", h.Attendance.AbsenceReport)
			groups.GET("/:id/absences/export", h.Attendance.ExportAbsences)
		}
	}

	return r
}
