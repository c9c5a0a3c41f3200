package v1

import (
	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/middleware"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService service.IUserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService service.IUserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser 创建用户接口
// @Router /api/v1/public/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	profile, err := h.userService.CreateUser(ctx, &req)
	if err != nil {
		failWithError(c, ctx, err, "创建用户服务内部错误")
		return
	}

	result.Success(c, profile)
}

// GetUserByEmail 按邮箱查询用户接口
// @Router /api/v1/auth/users/{email} [get]
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	email := c.Param("email")
	if email == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	profile, err := h.userService.GetUserByEmail(ctx, email)
	if err != nil {
		failWithError(c, ctx, err, "查询用户服务内部错误")
		return
	}

	result.Success(c, profile)
}

// UpdateUser 更新用户资料接口
// @Router /api/v1/auth/users/{email} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	email := c.Param("email")
	if email == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	profile, err := h.userService.UpdateUser(ctx, email, &req)
	if err != nil {
		failWithError(c, ctx, err, "更新用户服务内部错误")
		return
	}

	result.Success(c, profile)
}

// SendVerifyCode 发送邮箱验证码接口
// @Router /api/v1/public/users/verify/send [post]
func (h *UserHandler) SendVerifyCode(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SendVerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.userService.SendVerifyCode(ctx, req.Email); err != nil {
		failWithError(c, ctx, err, "发送验证码服务内部错误")
		return
	}

	result.Success(c, nil)
}

// VerifyEmail 校验邮箱验证码接口
// @Router /api/v1/public/users/verify [post]
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.userService.VerifyEmail(ctx, req.Email, req.Code); err != nil {
		failWithError(c, ctx, err, "校验验证码服务内部错误")
		return
	}

	result.Success(c, nil)
}
