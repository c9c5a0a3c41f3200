package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ==================== Redis 令牌桶 Lua 脚本 ====================

// luaTokenBucketRedis Redis 令牌桶 Lua 脚本
// 功能：原子性地更新令牌桶并判断是否允许通过
// 参数：
//
//	KEYS[1]: 限流 key (如: rate:limit:ip:{ip})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回值：
//   - 1: 允许通过
//   - 0: 不允许通过 (令牌不足)
//
// 注意：时间戳使用毫秒级精度以提高计算准确性
const luaTokenBucketRedis = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) -- 每秒产生的令牌数
local requested = tonumber(ARGV[4])

-- 获取当前状态
local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

-- 初始化
if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

-- 计算时间差 (毫秒)
local time_diff = math.max(0, now - last_time)

-- 计算补充令牌: (时间差ms * 速率) / 1000
local new_tokens = math.floor((time_diff * rate) / 1000)

-- 更新令牌数
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now -- 只有产生了新令牌才更新时间，防止精度丢失
end

-- 判断是否允许通过
local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

-- 更新 Redis
redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

-- 设置过期时间：桶填满所需时间 * 2，至少 60 秒
local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// ==================== Redis 限流器 ====================

// RedisRateLimiter 基于 Redis 的令牌桶限流器
type RedisRateLimiter struct {
	redisClient *redis.Client
	rate        float64 // 每秒产生的令牌数
	burst       int     // 令牌桶容量
	mu          *sync.RWMutex
}

// NewRedisRateLimiter 创建 Redis 限流器
// rate: 每秒产生的令牌数 (如: 10.0 表示每秒10个令牌)
// burst: 令牌桶容量 (如: 20 表示桶最多20个令牌)
func NewRedisRateLimiter(rate float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		rate:  rate,
		burst: burst,
		mu:    &sync.RWMutex{},
	}
}

// RedisSetClient 设置 Redis 客户端
// 使用延迟初始化避免循环依赖
func (r *RedisRateLimiter) RedisSetClient(redisClient *redis.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redisClient = redisClient
}

// Allow 检查是否允许请求通过
// key: Redis 限流 key (如: rate:limit:ip:{ip})
// 降级策略：Redis 不可用/超时/返回异常时放行，限流不能成为故障放大器。
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	client := r.redisClient
	r.mu.RUnlock()

	if client == nil {
		// Redis 客户端未初始化，降级放行
		return true, nil
	}

	now := time.Now().UnixMilli()

	// 给 Redis 操作加一个独立的短超时（50ms），防止 Redis 响应慢拖死入口
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	cmd := client.Eval(redisCtx, luaTokenBucketRedis, []string{key}, now, r.burst, r.rate, 1)
	result, err := cmd.Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，降级放行",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
			return true, nil
		}
		logger.Error(ctx, "Redis 限流检查失败，降级放行",
			logger.String("key", key),
			logger.ErrorField("error", err),
		)
		return true, nil
	}

	allowed, ok := result.(int64)
	if !ok {
		logger.Warn(ctx, "Redis 限流返回值类型错误，降级放行",
			logger.String("key", key),
			logger.Any("result", result),
		)
		return true, nil
	}

	return allowed == 1, nil
}

// 全局 Redis 限流器实例
var globalRedisLimiter *RedisRateLimiter

// InitRedisRateLimiter 初始化全局 Redis 限流器
func InitRedisRateLimiter(rate float64, burst int, redisClient *redis.Client) {
	globalRedisLimiter = NewRedisRateLimiter(rate, burst)
	globalRedisLimiter.RedisSetClient(redisClient)

	logger.Info(context.Background(), "Redis 限流器初始化完成",
		logger.Any("rate", rate),
		logger.Int("burst", burst),
	)
}

// IPRateLimitMiddleware 基于 Redis 的 IP 级别限流中间件
func IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, exists := GetClientIPSafe(c)
		if !exists || ip == "" {
			// 无法获取 IP，放行请求（记录警告）
			logger.Warn(c, "无法获取客户端 IP，跳过限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		if globalRedisLimiter == nil {
			c.Next()
			return
		}

		allowed, _ := globalRedisLimiter.Allow(c, rediskey.RateLimitIPKey(ip))
		if !allowed {
			logger.Warn(c, "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    10005,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware 基于用户 UID 的限流中间件
// 需要在 JWT 认证中间件之后使用
func UserRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := GetUserUID(c)
		if !ok || uid == "" {
			c.Next()
			return
		}

		if globalRedisLimiter == nil {
			c.Next()
			return
		}

		allowed, _ := globalRedisLimiter.Allow(c, rediskey.RateLimitUserKey(uid))
		if !allowed {
			logger.Warn(c, "用户请求被限流",
				logger.String("user_uid", uid),
				logger.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    10005,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
