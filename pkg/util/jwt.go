package util

import (
	"errors"
	"time"

	"ChatFlowServer/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret []byte
	jwtIssuer string
)

// ErrTokenInvalid 表示 token 解析失败、签名不匹配或已过期。
var ErrTokenInvalid = errors.New("token is invalid")

// Claims 会话 token 的业务声明。
// token 由外部认证服务签发，本服务只做校验与解析。
type Claims struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// InitJWT 初始化校验密钥（进程启动时调用一次）。
func InitJWT(cfg config.JWTConfig) {
	jwtSecret = []byte(cfg.Secret)
	jwtIssuer = cfg.Issuer
}

// ParseToken 解析并校验会话 token。
// 只接受 HMAC 签名算法，防止算法替换攻击。
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserUID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// SignToken 按外部认证服务的约定签发测试 token。
// 仅用于本地联调与测试，线上 token 由外部服务签发。
func SignToken(userUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserUID: userUID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
