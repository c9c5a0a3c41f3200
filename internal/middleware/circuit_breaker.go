package middleware

import (
	"context"
	"net/http"
	"time"

	"ChatFlowServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
)

// NewStoreBreaker 创建面向存储层的熔断器
// 连续失败率超过 60%（至少 10 个请求采样）时打开，30 秒后半开试探。
func NewStoreBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "熔断器状态变化",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
}

// CircuitBreakerMiddleware 入口熔断中间件
// 以 5xx 响应作为失败信号；熔断打开期间直接返回 503，给存储层喘息窗口。
func CircuitBreakerMiddleware(cb *gobreaker.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := cb.Execute(func() (interface{}, error) {
			c.Next()
			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerFailure
			}
			return nil, nil
		})

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    30002,
				"message": "服务暂不可用，请稍后再试",
			})
		}
	}
}

type serverFailureError struct{}

func (serverFailureError) Error() string { return "server failure" }

var errServerFailure = serverFailureError{}
