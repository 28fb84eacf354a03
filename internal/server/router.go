package server

import (
	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(ctl *app.Controller) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "helprojects",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 页面
	pageHandler := handler.NewPageHandler(ctl)
	r.GET("/", pageHandler.Page)
	r.GET("/projects", pageHandler.Page)
	r.GET("/create", pageHandler.Page)
	r.GET("/stats", pageHandler.Page)
	r.GET("/project/:id", pageHandler.Page)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == "GET" {
			pageHandler.Page(c)
			return
		}
		handler.ErrorResponse(c, 404, "Не найдено")
	})

	chatHandler := handler.NewChatHandler(ctl)
	r.GET("/ws/chat", chatHandler.WebSocket)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		projectHandler := handler.NewProjectHandler(ctl)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.POST("/:id/update", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/delete", projectHandler.DeleteProject)
			projects.POST("/:id/support", projectHandler.SupportProject)
			projects.POST("/:id/favorite", projectHandler.ToggleFavorite)
			projects.POST("/:id/rate", projectHandler.RateProject)
			projects.GET("/:id/comments", projectHandler.GetComments)
			projects.POST("/:id/comments", projectHandler.AddComment)
		}
		v1.GET("/stats", projectHandler.GetStats)

		// 会话
		sessionHandler := handler.NewSessionHandler(ctl)
		session := v1.Group("/session")
		{
			session.GET("", sessionHandler.Current)
			session.POST("", sessionHandler.Login)
			session.POST("/register", sessionHandler.Register)
			session.DELETE("", sessionHandler.Logout)
			session.POST("/logout", sessionHandler.Logout)
		}

		// 游戏化
		gameHandler := handler.NewGameHandler(ctl)
		v1.GET("/game", gameHandler.GetStats)
		v1.POST("/game/double-donation", gameHandler.BuyDoubleDonation)

		// 导航与提示
		noticeHandler := handler.NewNoticeHandler(ctl)
		v1.GET("/navigate", noticeHandler.Navigate)
		v1.GET("/notices", noticeHandler.GetNotices)
		v1.DELETE("/notices/:id", noticeHandler.DismissNotice)
		v1.POST("/notices/:id/dismiss", noticeHandler.DismissNotice)

		v1.POST("/chat", chatHandler.PostMessage)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
