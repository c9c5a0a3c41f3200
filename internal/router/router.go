package router

import (
	"net/http"

	"ChatFlowServer/internal/handler"
	"ChatFlowServer/internal/middleware"
	v1 "ChatFlowServer/internal/router/v1"
	"ChatFlowServer/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New 组装完整路由。
// 中间件顺序：恢复 -> 链路追踪 -> 客户端IP -> 访问日志 -> 指标 -> 跨域 -> IP限流。
func New(
	userHandler *v1.UserHandler,
	friendHandler *v1.FriendHandler,
	messageHandler *v1.MessageHandler,
	wsHandler *handler.WSHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.GinRecovery(true))
	r.Use(util.TraceLogger())
	r.Use(middleware.ClientIPMiddleware())
	r.Use(middleware.GinLogger())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.IPRateLimitMiddleware())

	// 健康检查与指标
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 接入（鉴权在握手内完成）
	r.GET("/ws", wsHandler.ServeWS)

	apiCB := middleware.NewStoreBreaker("api_v1")

	// 公开接口
	public := r.Group("/api/v1/public")
	public.Use(middleware.CircuitBreakerMiddleware(apiCB))
	{
		public.POST("/users", userHandler.CreateUser)
		public.POST("/users/verify/send", userHandler.SendVerifyCode)
		public.POST("/users/verify", userHandler.VerifyEmail)
	}

	// 需登录接口
	auth := r.Group("/api/v1/auth")
	auth.Use(middleware.JWTAuthMiddleware())
	auth.Use(middleware.UserRateLimitMiddleware())
	auth.Use(middleware.CircuitBreakerMiddleware(apiCB))
	{
		auth.GET("/users/:email", userHandler.GetUserByEmail)
		auth.PATCH("/users/:email", userHandler.UpdateUser)

		auth.GET("/friends", friendHandler.ListFriends)
		auth.DELETE("/friends", friendHandler.RemoveFriend)
		auth.GET("/friends/candidates", friendHandler.ListCandidates)

		auth.POST("/friends/requests", friendHandler.SendRequest)
		auth.DELETE("/friends/requests", friendHandler.CancelRequest)
		auth.POST("/friends/requests/accept", friendHandler.AcceptRequest)
		auth.POST("/friends/requests/reject", friendHandler.RejectRequest)
		auth.GET("/friends/requests/received", friendHandler.ListReceivedRequests)
		auth.GET("/friends/requests/sent", friendHandler.ListSentRequests)
		auth.GET("/friends/requests/count", friendHandler.CountReceivedRequests)

		auth.GET("/messages", messageHandler.ListMessages)
		auth.POST("/messages", messageHandler.PostMessage)
		auth.POST("/messages/image", messageHandler.UploadImage)
	}

	return r
}
