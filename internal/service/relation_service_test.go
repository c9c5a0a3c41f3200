package service

import (
	"context"
	"testing"
	"time"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestRepoForService struct {
	createFn                 func(context.Context, *model.FriendRequest) (*model.FriendRequest, error)
	deletePendingFn          func(context.Context, string, string) (int64, error)
	deleteBothFn             func(context.Context, string, string) (int64, error)
	listReceivedFn           func(context.Context, string) ([]*model.FriendRequest, error)
	listReceivedSenderUIDsFn func(context.Context, string) ([]string, error)
	listSentFn               func(context.Context, string) ([]*model.FriendRequest, error)
	existsPendingFn          func(context.Context, string, string) (bool, error)
	countReceivedFn          func(context.Context, string) (int64, error)
}

func (f *fakeRequestRepoForService) Create(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
	if f.createFn == nil {
		return req, nil
	}
	return f.createFn(ctx, req)
}

func (f *fakeRequestRepoForService) DeletePending(ctx context.Context, senderUID, receiverUID string) (int64, error) {
	if f.deletePendingFn == nil {
		return 0, nil
	}
	return f.deletePendingFn(ctx, senderUID, receiverUID)
}

func (f *fakeRequestRepoForService) DeleteBothDirections(ctx context.Context, uidA, uidB string) (int64, error) {
	if f.deleteBothFn == nil {
		return 0, nil
	}
	return f.deleteBothFn(ctx, uidA, uidB)
}

func (f *fakeRequestRepoForService) ListReceived(ctx context.Context, receiverUID string) ([]*model.FriendRequest, error) {
	if f.listReceivedFn == nil {
		return nil, nil
	}
	return f.listReceivedFn(ctx, receiverUID)
}

func (f *fakeRequestRepoForService) ListReceivedSenderUIDs(ctx context.Context, receiverUID string) ([]string, error) {
	if f.listReceivedSenderUIDsFn == nil {
		return nil, nil
	}
	return f.listReceivedSenderUIDsFn(ctx, receiverUID)
}

func (f *fakeRequestRepoForService) ListSent(ctx context.Context, senderUID string) ([]*model.FriendRequest, error) {
	if f.listSentFn == nil {
		return nil, nil
	}
	return f.listSentFn(ctx, senderUID)
}

func (f *fakeRequestRepoForService) ExistsPending(ctx context.Context, senderUID, receiverUID string) (bool, error) {
	if f.existsPendingFn == nil {
		return false, nil
	}
	return f.existsPendingFn(ctx, senderUID, receiverUID)
}

func (f *fakeRequestRepoForService) CountReceived(ctx context.Context, receiverUID string) (int64, error) {
	if f.countReceivedFn == nil {
		return 0, nil
	}
	return f.countReceivedFn(ctx, receiverUID)
}

type fakeFriendRepoForService struct {
	createPairFn     func(context.Context, string, string) error
	deletePairFn     func(context.Context, string, string) (int64, error)
	isFriendFn       func(context.Context, string, string) (bool, error)
	listFriendUIDsFn func(context.Context, string) ([]string, error)
}

func (f *fakeFriendRepoForService) CreatePair(ctx context.Context, uidA, uidB string) error {
	if f.createPairFn == nil {
		return nil
	}
	return f.createPairFn(ctx, uidA, uidB)
}

func (f *fakeFriendRepoForService) DeletePair(ctx context.Context, uidA, uidB string) (int64, error) {
	if f.deletePairFn == nil {
		return 0, nil
	}
	return f.deletePairFn(ctx, uidA, uidB)
}

func (f *fakeFriendRepoForService) IsFriend(ctx context.Context, uidA, uidB string) (bool, error) {
	if f.isFriendFn == nil {
		return false, nil
	}
	return f.isFriendFn(ctx, uidA, uidB)
}

func (f *fakeFriendRepoForService) ListFriendUIDs(ctx context.Context, uid string) ([]string, error) {
	if f.listFriendUIDsFn == nil {
		return nil, nil
	}
	return f.listFriendUIDsFn(ctx, uid)
}

func newRelationForTest(userRepo *fakeUserRepoForService, requestRepo *fakeRequestRepoForService, friendRepo *fakeFriendRepoForService) IRelationService {
	initServiceTestLogger()
	if userRepo == nil {
		userRepo = &fakeUserRepoForService{}
	}
	if requestRepo == nil {
		requestRepo = &fakeRequestRepoForService{}
	}
	if friendRepo == nil {
		friendRepo = &fakeFriendRepoForService{}
	}
	return NewRelationService(userRepo, requestRepo, friendRepo)
}

func TestRelationService_SendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("成功写入申请", func(t *testing.T) {
		var created *model.FriendRequest
		requestRepo := &fakeRequestRepoForService{
			createFn: func(_ context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
				created = req
				return req, nil
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)

		require.NoError(t, s.SendRequest(ctx, "ua", "ub"))
		require.NotNil(t, created)
		assert.Equal(t, "ua", created.SenderUid)
		assert.Equal(t, "ub", created.ReceiverUid)
	})

	t.Run("参数为空", func(t *testing.T) {
		s := newRelationForTest(nil, nil, nil)
		requireBizCode(t, s.SendRequest(ctx, "", "ub"), consts.CodeParamError)
		requireBizCode(t, s.SendRequest(ctx, "ua", ""), consts.CodeParamError)
	})

	t.Run("不能添加自己", func(t *testing.T) {
		s := newRelationForTest(nil, nil, nil)
		requireBizCode(t, s.SendRequest(ctx, "ua", "ua"), consts.CodeRequestSelf)
	})

	t.Run("已是好友", func(t *testing.T) {
		friendRepo := &fakeFriendRepoForService{
			isFriendFn: func(_ context.Context, _, _ string) (bool, error) {
				return true, nil
			},
		}
		s := newRelationForTest(nil, nil, friendRepo)
		requireBizCode(t, s.SendRequest(ctx, "ua", "ub"), consts.CodeAlreadyFriend)
	})

	t.Run("待处理缓存命中时快路径拒绝", func(t *testing.T) {
		var createCalled bool
		requestRepo := &fakeRequestRepoForService{
			existsPendingFn: func(_ context.Context, senderUID, receiverUID string) (bool, error) {
				assert.Equal(t, "ua", senderUID)
				assert.Equal(t, "ub", receiverUID)
				return true, nil
			},
			createFn: func(_ context.Context, _ *model.FriendRequest) (*model.FriendRequest, error) {
				createCalled = true
				return nil, nil
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)

		requireBizCode(t, s.SendRequest(ctx, "ua", "ub"), consts.CodeFriendRequestSent)
		assert.False(t, createCalled)
	})

	t.Run("同向重复申请由唯一索引兜底", func(t *testing.T) {
		// 缓存未命中时并发竞争仍会穿透到写路径，唯一索引冲突给出相同业务码
		requestRepo := &fakeRequestRepoForService{
			createFn: func(_ context.Context, _ *model.FriendRequest) (*model.FriendRequest, error) {
				return nil, repository.ErrDuplicateKey
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)
		requireBizCode(t, s.SendRequest(ctx, "ua", "ub"), consts.CodeFriendRequestSent)
	})

	t.Run("反方向申请互相独立", func(t *testing.T) {
		// 模拟真实唯一索引：仅同向 (sender, receiver) 冲突
		existing := map[[2]string]bool{{"ua", "ub"}: true}
		requestRepo := &fakeRequestRepoForService{
			createFn: func(_ context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
				key := [2]string{req.SenderUid, req.ReceiverUid}
				if existing[key] {
					return nil, repository.ErrDuplicateKey
				}
				existing[key] = true
				return req, nil
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)

		requireBizCode(t, s.SendRequest(ctx, "ua", "ub"), consts.CodeFriendRequestSent)
		assert.NoError(t, s.SendRequest(ctx, "ub", "ua"))
	})
}

func TestRelationService_AcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("删除双向申请并建立好友关系", func(t *testing.T) {
		var deletedPair, createdPair [2]string
		requestRepo := &fakeRequestRepoForService{
			deleteBothFn: func(_ context.Context, uidA, uidB string) (int64, error) {
				deletedPair = [2]string{uidA, uidB}
				return 2, nil
			},
		}
		friendRepo := &fakeFriendRepoForService{
			createPairFn: func(_ context.Context, uidA, uidB string) error {
				createdPair = [2]string{uidA, uidB}
				return nil
			},
		}
		s := newRelationForTest(nil, requestRepo, friendRepo)

		require.NoError(t, s.AcceptRequest(ctx, "ub", "ua"))
		assert.Equal(t, [2]string{"ua", "ub"}, deletedPair)
		assert.Equal(t, [2]string{"ua", "ub"}, createdPair)
	})

	t.Run("无待处理申请时同样放行", func(t *testing.T) {
		var created bool
		requestRepo := &fakeRequestRepoForService{
			deleteBothFn: func(_ context.Context, _, _ string) (int64, error) {
				return 0, nil
			},
		}
		friendRepo := &fakeFriendRepoForService{
			createPairFn: func(_ context.Context, _, _ string) error {
				created = true
				return nil
			},
		}
		s := newRelationForTest(nil, requestRepo, friendRepo)

		require.NoError(t, s.AcceptRequest(ctx, "ub", "ua"))
		assert.True(t, created)
	})

	t.Run("不能同意自己", func(t *testing.T) {
		s := newRelationForTest(nil, nil, nil)
		requireBizCode(t, s.AcceptRequest(ctx, "ua", "ua"), consts.CodeRequestSelf)
	})
}

func TestRelationService_RejectAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("拒绝只删对方发来的方向", func(t *testing.T) {
		var deleted [2]string
		requestRepo := &fakeRequestRepoForService{
			deletePendingFn: func(_ context.Context, senderUID, receiverUID string) (int64, error) {
				deleted = [2]string{senderUID, receiverUID}
				return 1, nil
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)

		require.NoError(t, s.RejectRequest(ctx, "ub", "ua"))
		assert.Equal(t, [2]string{"ua", "ub"}, deleted)
	})

	t.Run("撤回只删自己发出的方向", func(t *testing.T) {
		var deleted [2]string
		requestRepo := &fakeRequestRepoForService{
			deletePendingFn: func(_ context.Context, senderUID, receiverUID string) (int64, error) {
				deleted = [2]string{senderUID, receiverUID}
				return 1, nil
			},
		}
		s := newRelationForTest(nil, requestRepo, nil)

		require.NoError(t, s.CancelRequest(ctx, "ua", "ub"))
		assert.Equal(t, [2]string{"ua", "ub"}, deleted)
	})

	t.Run("申请不存在时幂等成功", func(t *testing.T) {
		s := newRelationForTest(nil, nil, nil)
		assert.NoError(t, s.RejectRequest(ctx, "ub", "ua"))
		assert.NoError(t, s.CancelRequest(ctx, "ua", "ub"))
	})
}

func TestRelationService_RemoveFriend(t *testing.T) {
	ctx := context.Background()

	t.Run("解除好友关系", func(t *testing.T) {
		var deleted [2]string
		friendRepo := &fakeFriendRepoForService{
			deletePairFn: func(_ context.Context, uidA, uidB string) (int64, error) {
				deleted = [2]string{uidA, uidB}
				return 2, nil
			},
		}
		s := newRelationForTest(nil, nil, friendRepo)

		require.NoError(t, s.RemoveFriend(ctx, "ua", "ub"))
		assert.Equal(t, [2]string{"ua", "ub"}, deleted)
	})

	t.Run("关系不存在时幂等成功", func(t *testing.T) {
		s := newRelationForTest(nil, nil, nil)
		assert.NoError(t, s.RemoveFriend(ctx, "ua", "ub"))
	})
}

func TestRelationService_ListCandidates(t *testing.T) {
	ctx := context.Background()

	userRepo := &fakeUserRepoForService{
		listAllUIDsFn: func(_ context.Context) ([]string, error) {
			return []string{"me", "friend", "pending-in", "pending-out", "stranger"}, nil
		},
		batchGetFn: func(_ context.Context, uids []string) ([]*model.User, error) {
			users := make([]*model.User, 0, len(uids))
			for _, uid := range uids {
				users = append(users, &model.User{Uid: uid, Name: uid, CreatedAt: time.Now()})
			}
			return users, nil
		},
	}
	var listReceivedCalled bool
	requestRepo := &fakeRequestRepoForService{
		listReceivedSenderUIDsFn: func(_ context.Context, _ string) ([]string, error) {
			return []string{"pending-in"}, nil
		},
		listReceivedFn: func(_ context.Context, _ string) ([]*model.FriendRequest, error) {
			listReceivedCalled = true
			return nil, nil
		},
		listSentFn: func(_ context.Context, _ string) ([]*model.FriendRequest, error) {
			return []*model.FriendRequest{{SenderUid: "me", ReceiverUid: "pending-out"}}, nil
		},
	}
	friendRepo := &fakeFriendRepoForService{
		listFriendUIDsFn: func(_ context.Context, _ string) ([]string, error) {
			return []string{"friend"}, nil
		},
	}
	s := newRelationForTest(userRepo, requestRepo, friendRepo)

	candidates, err := s.ListCandidates(ctx, "me")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "stranger", candidates[0].Uid)
	// 候选人计算走单列查询，不应借道带缓存副作用的收件列表
	assert.False(t, listReceivedCalled)
}

func TestRelationService_ListReceivedRequests(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	userRepo := &fakeUserRepoForService{
		batchGetFn: func(_ context.Context, uids []string) ([]*model.User, error) {
			// ua 有档案，ghost 没有
			return []*model.User{{Uid: "ua", Name: "Alice", Email: "a@b.c", CreatedAt: now}}, nil
		},
	}
	requestRepo := &fakeRequestRepoForService{
		listReceivedFn: func(_ context.Context, receiverUID string) ([]*model.FriendRequest, error) {
			return []*model.FriendRequest{
				{SenderUid: "ua", ReceiverUid: receiverUID, CreatedAt: now},
				{SenderUid: "ghost", ReceiverUid: receiverUID, CreatedAt: now},
			}, nil
		},
	}
	s := newRelationForTest(userRepo, requestRepo, nil)

	views, err := s.ListReceivedRequests(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "ua", views[0].SenderUid)
	assert.Equal(t, "Alice", views[0].Name)
	assert.Equal(t, now.UnixMilli(), views[0].CreatedAt)

	// 档案缺失时保留申请本身，档案字段为空
	assert.Equal(t, "ghost", views[1].SenderUid)
	assert.Empty(t, views[1].Name)
}

func TestRelationService_CountReceivedRequests(t *testing.T) {
	requestRepo := &fakeRequestRepoForService{
		countReceivedFn: func(_ context.Context, receiverUID string) (int64, error) {
			assert.Equal(t, "me", receiverUID)
			return 3, nil
		},
	}
	s := newRelationForTest(nil, requestRepo, nil)

	count, err := s.CountReceivedRequests(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
