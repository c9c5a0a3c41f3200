package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceLoggerOnce sync.Once

func initServiceTestLogger() {
	serviceLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

func requireBizCode(t *testing.T, err error, wantCode int32) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, wantCode, AsBizError(err))
}

type fakeUserRepoForService struct {
	createFn           func(context.Context, *model.User) (*model.User, error)
	getByUIDFn         func(context.Context, string) (*model.User, error)
	getByEmailFn       func(context.Context, string) (*model.User, error)
	batchGetFn         func(context.Context, []string) ([]*model.User, error)
	updateProfileFn    func(context.Context, string, string, string, string) error
	markVerifiedFn     func(context.Context, string) error
	listAllUIDsFn      func(context.Context) ([]string, error)
	saveVerifyCodeFn   func(context.Context, string, string, time.Duration) error
	getVerifyCodeFn    func(context.Context, string) (string, error)
	deleteVerifyCodeFn func(context.Context, string) error
}

func (f *fakeUserRepoForService) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if f.createFn == nil {
		return user, nil
	}
	return f.createFn(ctx, user)
}

func (f *fakeUserRepoForService) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	if f.getByUIDFn == nil {
		return nil, nil
	}
	return f.getByUIDFn(ctx, uid)
}

func (f *fakeUserRepoForService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.getByEmailFn == nil {
		return nil, nil
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepoForService) BatchGetByUIDs(ctx context.Context, uids []string) ([]*model.User, error) {
	if f.batchGetFn == nil {
		return nil, nil
	}
	return f.batchGetFn(ctx, uids)
}

func (f *fakeUserRepoForService) UpdateProfile(ctx context.Context, uid, name, image, cover string) error {
	if f.updateProfileFn == nil {
		return nil
	}
	return f.updateProfileFn(ctx, uid, name, image, cover)
}

func (f *fakeUserRepoForService) MarkVerified(ctx context.Context, email string) error {
	if f.markVerifiedFn == nil {
		return nil
	}
	return f.markVerifiedFn(ctx, email)
}

func (f *fakeUserRepoForService) ListAllUIDs(ctx context.Context) ([]string, error) {
	if f.listAllUIDsFn == nil {
		return nil, nil
	}
	return f.listAllUIDsFn(ctx)
}

func (f *fakeUserRepoForService) SaveVerifyCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if f.saveVerifyCodeFn == nil {
		return nil
	}
	return f.saveVerifyCodeFn(ctx, email, code, ttl)
}

func (f *fakeUserRepoForService) GetVerifyCode(ctx context.Context, email string) (string, error) {
	if f.getVerifyCodeFn == nil {
		return "", repository.ErrRedisNil
	}
	return f.getVerifyCodeFn(ctx, email)
}

func (f *fakeUserRepoForService) DeleteVerifyCode(ctx context.Context, email string) error {
	if f.deleteVerifyCodeFn == nil {
		return nil
	}
	return f.deleteVerifyCodeFn(ctx, email)
}

func TestUserService_CreateUser(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("成功创建并规整邮箱", func(t *testing.T) {
		var created *model.User
		repo := &fakeUserRepoForService{
			createFn: func(_ context.Context, user *model.User) (*model.User, error) {
				created = user
				user.CreatedAt = time.Now()
				return user, nil
			},
		}
		s := NewUserService(repo, nil)

		profile, err := s.CreateUser(ctx, &dto.CreateUserRequest{
			Uid:   "u1",
			Name:  " Alice ",
			Email: " Alice@Test.Local ",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "alice@test.local", created.Email)
		assert.Equal(t, "Alice", created.Name)
		assert.Equal(t, "user", created.Role)
		assert.Equal(t, "alice@test.local", profile.Email)
	})

	t.Run("未传uid时服务端生成", func(t *testing.T) {
		var created *model.User
		repo := &fakeUserRepoForService{
			createFn: func(_ context.Context, user *model.User) (*model.User, error) {
				created = user
				return user, nil
			},
		}
		s := NewUserService(repo, nil)

		_, err := s.CreateUser(ctx, &dto.CreateUserRequest{Email: "a@b.c"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.Uid)
	})

	t.Run("邮箱为空返回参数错误", func(t *testing.T) {
		s := NewUserService(&fakeUserRepoForService{}, nil)
		_, err := s.CreateUser(ctx, &dto.CreateUserRequest{Uid: "u1"})
		requireBizCode(t, err, consts.CodeParamError)
	})

	t.Run("重复创建返回用户已存在", func(t *testing.T) {
		repo := &fakeUserRepoForService{
			createFn: func(_ context.Context, _ *model.User) (*model.User, error) {
				return nil, repository.ErrDuplicateKey
			},
		}
		s := NewUserService(repo, nil)
		_, err := s.CreateUser(ctx, &dto.CreateUserRequest{Email: "a@b.c"})
		requireBizCode(t, err, consts.CodeUserAlreadyExist)
	})
}

func TestUserService_GetUserByEmail(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("用户不存在", func(t *testing.T) {
		s := NewUserService(&fakeUserRepoForService{}, nil)
		_, err := s.GetUserByEmail(ctx, "nobody@test.local")
		requireBizCode(t, err, consts.CodeUserNotFound)
	})

	t.Run("按小写邮箱查询", func(t *testing.T) {
		var queried string
		repo := &fakeUserRepoForService{
			getByEmailFn: func(_ context.Context, email string) (*model.User, error) {
				queried = email
				return &model.User{Uid: "u1", Email: email, CreatedAt: time.Now()}, nil
			},
		}
		s := NewUserService(repo, nil)

		profile, err := s.GetUserByEmail(ctx, " Alice@Test.Local ")
		require.NoError(t, err)
		assert.Equal(t, "alice@test.local", queried)
		assert.Equal(t, "u1", profile.Uid)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("更新成功返回最新档案", func(t *testing.T) {
		repo := &fakeUserRepoForService{
			getByEmailFn: func(_ context.Context, email string) (*model.User, error) {
				return &model.User{Uid: "u1", Email: email, Name: "old", CreatedAt: time.Now()}, nil
			},
			getByUIDFn: func(_ context.Context, uid string) (*model.User, error) {
				return &model.User{Uid: uid, Name: "new", CreatedAt: time.Now()}, nil
			},
		}
		s := NewUserService(repo, nil)

		profile, err := s.UpdateUser(ctx, "a@b.c", &dto.UpdateUserRequest{Name: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", profile.Name)
	})

	t.Run("用户不存在", func(t *testing.T) {
		s := NewUserService(&fakeUserRepoForService{}, nil)
		_, err := s.UpdateUser(ctx, "nobody@test.local", &dto.UpdateUserRequest{Name: "x"})
		requireBizCode(t, err, consts.CodeUserNotFound)
	})
}

func TestUserService_SendVerifyCode(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("写入6位数字验证码", func(t *testing.T) {
		var savedCode string
		repo := &fakeUserRepoForService{
			saveVerifyCodeFn: func(_ context.Context, _, code string, _ time.Duration) error {
				savedCode = code
				return nil
			},
		}
		s := NewUserService(repo, nil)

		require.NoError(t, s.SendVerifyCode(ctx, "a@b.c"))
		assert.Len(t, savedCode, 6)
	})

	t.Run("一分钟内重复发送被限频", func(t *testing.T) {
		repo := &fakeUserRepoForService{
			saveVerifyCodeFn: func(_ context.Context, _, _ string, _ time.Duration) error {
				return repository.ErrDuplicateKey
			},
		}
		s := NewUserService(repo, nil)
		requireBizCode(t, s.SendVerifyCode(ctx, "a@b.c"), consts.CodeTooManyRequests)
	})

	t.Run("邮箱为空返回参数错误", func(t *testing.T) {
		s := NewUserService(&fakeUserRepoForService{}, nil)
		requireBizCode(t, s.SendVerifyCode(ctx, "  "), consts.CodeParamError)
	})
}

func TestUserService_VerifyEmail(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("验证码过期", func(t *testing.T) {
		s := NewUserService(&fakeUserRepoForService{}, nil)
		requireBizCode(t, s.VerifyEmail(ctx, "a@b.c", "123456"), consts.CodeVerifyCodeExpire)
	})

	t.Run("验证码不匹配", func(t *testing.T) {
		repo := &fakeUserRepoForService{
			getVerifyCodeFn: func(_ context.Context, _ string) (string, error) {
				return "654321", nil
			},
		}
		s := NewUserService(repo, nil)
		requireBizCode(t, s.VerifyEmail(ctx, "a@b.c", "123456"), consts.CodeVerifyCodeError)
	})

	t.Run("验证通过后删除验证码", func(t *testing.T) {
		var marked, deleted bool
		repo := &fakeUserRepoForService{
			getVerifyCodeFn: func(_ context.Context, _ string) (string, error) {
				return "123456", nil
			},
			markVerifiedFn: func(_ context.Context, _ string) error {
				marked = true
				return nil
			},
			deleteVerifyCodeFn: func(_ context.Context, _ string) error {
				deleted = true
				return nil
			},
		}
		s := NewUserService(repo, nil)

		require.NoError(t, s.VerifyEmail(ctx, "a@b.c", "123456"))
		assert.True(t, marked)
		assert.True(t, deleted)
	})
}
