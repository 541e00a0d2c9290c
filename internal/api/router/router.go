package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/config"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/api/handler"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/api/middleware"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/jwt"
	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/redis"
)

// Setup builds the gin engine with all routes wired.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	management := middleware.RoleAuth(model.RoleAdmin, model.RoleCapataz)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// auth (no token required)
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/register", adminOnly, h.Auth.Register)

			// roster
			members := authorized.Group("/members")
			{
				members.GET("", h.Member.ListMembers)
				members.GET("/grouped", h.Member.ListMembersGrouped)
				members.GET("/:id", h.Member.GetMember)
				members.GET("/:id/attendance", h.Attendance.MemberHistory)
				members.POST("", management, h.Member.CreateMember)
				members.PUT("/:id", management, h.Member.UpdateMember)
				members.DELETE("/:id", management, h.Member.DeleteMember)
				members.POST("/clone-season", adminOnly, h.Member.CloneSeason)
			}

			// events and attendance
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.GET("/:id", h.Event.GetEvent)
				events.POST("", management, h.Event.CreateEvent)
				events.PUT("/:id", management, h.Event.UpdateEvent)
				events.DELETE("/:id", adminOnly, h.Event.DeleteEvent)

				events.GET("/:id/attendance", h.Attendance.EventRoll)
				events.POST("/:id/attendance/scan", management, h.Attendance.Scan)
				events.PUT("/:id/attendance", management, h.Attendance.SetStatus)
				events.POST("/:id/attendance/close", management, h.Attendance.CloseEvent)
				events.DELETE("/:id/attendance/:memberId", management, h.Attendance.DeleteRecord)
			}

			// absence notices
			notices := authorized.Group("/notices")
			{
				notices.POST("", h.Notice.CreateNotice)
				notices.GET("/mine", h.Notice.ListMine)
				notices.GET("/unread", management, h.Notice.ListUnread)
				notices.GET("/:id", management, h.Notice.GetNotice)
				notices.PUT("/:id/resolve", management, h.Notice.ResolveNotice)
			}

			// active season
			authorized.GET("/season", h.Season.GetActiveSeason)
			authorized.PUT("/season", adminOnly, h.Season.SetActiveSeason)

			// exports
			export := authorized.Group("/export")
			{
				export.GET("/events/:id/roll", management, h.Export.ExportEventRoll)
				export.GET("/roster", management, h.Export.ExportRoster)
				export.GET("/calendar", h.Export.ExportSeasonCalendar)
			}

			// generic relations gateway for field devices
			relations := authorized.Group("/relations/:relation")
			relations.Use(management)
			{
				relations.POST("/select", h.Relation.Select)
				relations.POST("/insert", h.Relation.Insert)
				relations.POST("/upsert", h.Relation.Upsert)
				relations.POST("/delete", h.Relation.Delete)
				relations.POST("/count", h.Relation.Count)
			}
		}
	}

	return r
}
