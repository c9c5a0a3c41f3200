package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"ChatFlowServer/consts"
	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/async"
	"ChatFlowServer/pkg/logger"
	"ChatFlowServer/pkg/mail"

	"github.com/google/uuid"
)

// userServiceImpl 用户服务实现
type userServiceImpl struct {
	userRepo   repository.IUserRepository
	mailSender *mail.Sender
}

// NewUserService 创建用户服务实例
// mailSender 为 nil 时验证码仅写入 Redis 不发信（本地联调场景）。
func NewUserService(userRepo repository.IUserRepository, mailSender *mail.Sender) IUserService {
	return &userServiceImpl{userRepo: userRepo, mailSender: mailSender}
}

// CreateUser 创建用户
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserProfile, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, NewBizError(consts.CodeParamError)
	}

	uid := strings.TrimSpace(req.Uid)
	if uid == "" {
		// 外部认证体系未下发 uid 时服务端生成兜底
		uid = uuid.New().String()
	}

	user := &model.User{
		Uid:   uid,
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Image: req.Image,
		Role:  "user",
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, wrapRepoError(err, 0, consts.CodeUserAlreadyExist)
	}

	return toUserProfile(created), nil
}

// GetUserByEmail 按邮箱查询用户
func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewBizError(consts.CodeUserNotFound)
	}
	return toUserProfile(user), nil
}

// UpdateUser 按邮箱更新用户资料
func (s *userServiceImpl) UpdateUser(ctx context.Context, email string, req *dto.UpdateUserRequest) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewBizError(consts.CodeUserNotFound)
	}

	if err := s.userRepo.UpdateProfile(ctx, user.Uid, req.Name, req.Image, req.Cover); err != nil {
		return nil, wrapRepoError(err, consts.CodeUserNotFound, 0)
	}

	updated, err := s.userRepo.GetByUID(ctx, user.Uid)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewBizError(consts.CodeUserNotFound)
	}
	return toUserProfile(updated), nil
}

// SendVerifyCode 发送邮箱验证码
// 流程：生成 6 位数字验证码 -> 写 Redis（带 1 分钟频率限制）-> 异步发信。
func (s *userServiceImpl) SendVerifyCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return NewBizError(consts.CodeParamError)
	}

	code, err := generateVerifyCode()
	if err != nil {
		return err
	}

	if err := s.userRepo.SaveVerifyCode(ctx, email, code, rediskey.VerifyCodeTTL); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return NewBizError(consts.CodeTooManyRequests)
		}
		return err
	}

	// 发信走异步池，SMTP 慢不拖垮请求
	if s.mailSender != nil {
		async.RunSafe(ctx, func(runCtx context.Context) {
			if err := s.mailSender.SendVerifyCode(email, code); err != nil {
				logger.Error(runCtx, "发送验证码邮件失败",
					logger.String("email", email),
					logger.ErrorField("error", err),
				)
			}
		}, 0)
	}

	return nil
}

// VerifyEmail 校验验证码并标记邮箱已验证
func (s *userServiceImpl) VerifyEmail(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return NewBizError(consts.CodeParamError)
	}

	stored, err := s.userRepo.GetVerifyCode(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrRedisNil) {
			return NewBizError(consts.CodeVerifyCodeExpire)
		}
		return err
	}
	if stored != code {
		return NewBizError(consts.CodeVerifyCodeError)
	}

	if err := s.userRepo.MarkVerified(ctx, email); err != nil {
		return wrapRepoError(err, consts.CodeUserNotFound, 0)
	}

	// 验证通过后删除验证码，防止重放
	if err := s.userRepo.DeleteVerifyCode(ctx, email); err != nil {
		logger.Warn(ctx, "删除已用验证码失败", logger.ErrorField("error", err))
	}

	return nil
}

// generateVerifyCode 生成 6 位数字验证码
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verify code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// toUserProfile 组装用户档案视图
func toUserProfile(user *model.User) *dto.UserProfile {
	return &dto.UserProfile{
		Uid:        user.Uid,
		Name:       user.Name,
		Email:      user.Email,
		Image:      user.Image,
		Cover:      user.Cover,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt.UnixMilli(),
	}
}
