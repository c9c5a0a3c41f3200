package service

import (
	"context"
	"testing"
	"time"

	"ChatFlowServer/consts"
	"ChatFlowServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageRepoForService struct {
	createFn      func(context.Context, *model.Message) (*model.Message, error)
	listBetweenFn func(context.Context, string, string, int) ([]*model.Message, error)
}

func (f *fakeMessageRepoForService) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if f.createFn == nil {
		msg.Id = 1
		msg.CreatedAt = time.Now()
		return msg, nil
	}
	return f.createFn(ctx, msg)
}

func (f *fakeMessageRepoForService) ListBetween(ctx context.Context, uidA, uidB string, limit int) ([]*model.Message, error) {
	if f.listBetweenFn == nil {
		return nil, nil
	}
	return f.listBetweenFn(ctx, uidA, uidB, limit)
}

func TestMessageService_SendMessage(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("落库成功返回视图", func(t *testing.T) {
		repo := &fakeMessageRepoForService{
			createFn: func(_ context.Context, msg *model.Message) (*model.Message, error) {
				msg.Id = 123456789
				msg.CreatedAt = time.Now()
				return msg, nil
			},
		}
		s := NewMessageService(repo, nil)

		view, err := s.SendMessage(ctx, "ua", "ub", "hello", "")
		require.NoError(t, err)
		// 雪花 id 以十进制字符串下发，避免前端 JSON 精度丢失
		assert.Equal(t, "123456789", view.Id)
		assert.Equal(t, "ua", view.SenderUid)
		assert.Equal(t, "hello", view.Text)
	})

	t.Run("仅图片消息允许文本为空", func(t *testing.T) {
		s := NewMessageService(&fakeMessageRepoForService{}, nil)
		view, err := s.SendMessage(ctx, "ua", "ub", "", "http://img/x.png")
		require.NoError(t, err)
		assert.Equal(t, "http://img/x.png", view.Image)
	})

	t.Run("双方uid缺失返回参数错误", func(t *testing.T) {
		s := NewMessageService(&fakeMessageRepoForService{}, nil)
		_, err := s.SendMessage(ctx, "", "ub", "hello", "")
		requireBizCode(t, err, consts.CodeParamError)
		_, err = s.SendMessage(ctx, "ua", "  ", "hello", "")
		requireBizCode(t, err, consts.CodeParamError)
	})

	t.Run("文本与图片同时为空返回内容为空", func(t *testing.T) {
		s := NewMessageService(&fakeMessageRepoForService{}, nil)
		_, err := s.SendMessage(ctx, "ua", "ub", "   ", "")
		requireBizCode(t, err, consts.CodeMessageEmptyBody)
	})
}

func TestMessageService_ListMessages(t *testing.T) {
	initServiceTestLogger()
	ctx := context.Background()

	t.Run("返回双向历史消息", func(t *testing.T) {
		now := time.Now()
		repo := &fakeMessageRepoForService{
			listBetweenFn: func(_ context.Context, uidA, uidB string, _ int) ([]*model.Message, error) {
				assert.Equal(t, "ua", uidA)
				assert.Equal(t, "ub", uidB)
				return []*model.Message{
					{Id: 1, SenderUid: "ua", ReceiverUid: "ub", Text: "hi", CreatedAt: now},
					{Id: 2, SenderUid: "ub", ReceiverUid: "ua", Text: "hey", CreatedAt: now},
				}, nil
			},
		}
		s := NewMessageService(repo, nil)

		views, err := s.ListMessages(ctx, "ua", "ub")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "1", views[0].Id)
		assert.Equal(t, "ub", views[1].SenderUid)
	})

	t.Run("历史查询不截断条数", func(t *testing.T) {
		// 截断会让超长会话永远看不到最新消息，历史接口必须请求全量
		capturedLimit := -1
		repo := &fakeMessageRepoForService{
			listBetweenFn: func(_ context.Context, _, _ string, limit int) ([]*model.Message, error) {
				capturedLimit = limit
				return nil, nil
			},
		}
		s := NewMessageService(repo, nil)

		_, err := s.ListMessages(ctx, "ua", "ub")
		require.NoError(t, err)
		assert.Equal(t, 0, capturedLimit)
	})

	t.Run("peer为空返回参数错误", func(t *testing.T) {
		s := NewMessageService(&fakeMessageRepoForService{}, nil)
		_, err := s.ListMessages(ctx, "ua", " ")
		requireBizCode(t, err, consts.CodeParamError)
	})
}

func TestMessageService_UploadImageUnavailable(t *testing.T) {
	initServiceTestLogger()

	// MinIO 未初始化时返回服务不可用而不是 panic
	s := NewMessageService(&fakeMessageRepoForService{}, nil)
	_, err := s.UploadImage(context.Background(), nil, 0, "x.png", "image/png")
	requireBizCode(t, err, consts.CodeServiceUnavailable)
}
