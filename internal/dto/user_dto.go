package dto

// CreateUserRequest 创建用户请求
// Uid 由外部认证体系签发；为空时服务端生成 UUID 兜底。
type CreateUserRequest struct {
	Uid   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email" binding:"required,email"`
	Image string `json:"image"`
}

// UpdateUserRequest 更新用户资料请求，空字段跳过
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Cover string `json:"cover"`
}

// SendVerifyCodeRequest 发送邮箱验证码请求
type SendVerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailRequest 校验邮箱验证码请求
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// UserProfile 用户档案视图
type UserProfile struct {
	Uid        string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Image      string `json:"image"`
	Cover      string `json:"cover"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  int64  `json:"createdAt"`
}

// UserSummary 用户摘要视图，好友/候选人列表使用
type UserSummary struct {
	Uid   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}
