package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// VerifyCodeTTL 邮箱验证码 TTL
	VerifyCodeTTL = 10 * time.Minute
	// VerifyCodeMinuteTTL 验证码 1 分钟限流 TTL
	VerifyCodeMinuteTTL = 1 * time.Minute

	// UserInfoTTL 用户信息缓存 TTL
	UserInfoTTL = 1 * time.Hour
	// UserInfoEmptyTTL 用户信息空值缓存 TTL
	UserInfoEmptyTTL = 5 * time.Minute

	// FriendSetTTL 好友集合缓存 TTL
	FriendSetTTL = 24 * time.Hour
	// FriendSetEmptyTTL 好友集合空值缓存 TTL
	FriendSetEmptyTTL = 5 * time.Minute

	// RequestPendingTTL 待处理好友申请缓存 TTL
	RequestPendingTTL = 24 * time.Hour
	// RequestPendingEmptyTTL 待处理申请空值缓存 TTL
	RequestPendingEmptyTTL = 5 * time.Minute

	// PresenceTTL 在线用户集合 TTL（进程异常退出后由 TTL 兜底清理）
	PresenceTTL = 2 * time.Minute

	// AuthTokenTTL 会话 token 哈希 TTL
	AuthTokenTTL = 24 * time.Hour
)

// ==================== Key 构造函数 ====================

// VerifyCodeKey 邮箱验证码 Key: user:verify_code:{email}
func VerifyCodeKey(email string) string {
	return fmt.Sprintf("user:verify_code:%s", email)
}

// VerifyCodeMinuteKey 验证码 1 分钟限流 Key: user:verify_code:1m:{email}
func VerifyCodeMinuteKey(email string) string {
	return fmt.Sprintf("user:verify_code:1m:%s", email)
}

// AccessTokenKey 会话 token 哈希 Key: auth:at:{uid}
func AccessTokenKey(uid string) string {
	return fmt.Sprintf("auth:at:%s", uid)
}

// UserInfoKey 用户信息缓存 Key: user:info:{uid}
func UserInfoKey(uid string) string {
	return fmt.Sprintf("user:info:%s", uid)
}

// FriendSetKey 好友集合 Key: user:relation:friend:{uid}
func FriendSetKey(uid string) string {
	return fmt.Sprintf("user:relation:friend:%s", uid)
}

// RequestPendingKey 待处理好友申请 Key: user:request:pending:{receiver_uid}
func RequestPendingKey(receiverUID string) string {
	return fmt.Sprintf("user:request:pending:%s", receiverUID)
}

// PresenceOnlineKey 在线用户集合 Key: presence:online
func PresenceOnlineKey() string {
	return "presence:online"
}

// RateLimitIPKey IP 限流 Key: rate:limit:ip:{ip}
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}

// RateLimitUserKey 用户限流 Key: rate:limit:user:{uid}
func RateLimitUserKey(uid string) string {
	return fmt.Sprintf("rate:limit:user:%s", uid)
}
