package repository

import (
	"context"
	"time"

	"ChatFlowServer/model"
)

// IUserRepository 用户档案数据访问层接口
type IUserRepository interface {
	// Create 创建用户，uid 或 email 冲突返回 ErrDuplicateKey
	Create(ctx context.Context, user *model.User) (*model.User, error)
	// GetByUID 根据 uid 查询用户，不存在返回 (nil, nil)
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	// GetByEmail 根据邮箱查询用户，不存在返回 (nil, nil)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// BatchGetByUIDs 批量查询用户，不存在的 uid 不出现在结果中
	BatchGetByUIDs(ctx context.Context, uids []string) ([]*model.User, error)
	// UpdateProfile 更新资料字段（昵称/头像/封面），空值跳过
	UpdateProfile(ctx context.Context, uid, name, image, cover string) error
	// MarkVerified 标记邮箱验证通过
	MarkVerified(ctx context.Context, email string) error
	// ListAllUIDs 返回全部用户 uid
	ListAllUIDs(ctx context.Context) ([]string, error)

	// SaveVerifyCode 保存邮箱验证码，受 1 分钟发送频率限制
	SaveVerifyCode(ctx context.Context, email, code string, ttl time.Duration) error
	// GetVerifyCode 读取邮箱验证码，不存在返回 ErrRedisNil
	GetVerifyCode(ctx context.Context, email string) (string, error)
	// DeleteVerifyCode 删除已使用的验证码
	DeleteVerifyCode(ctx context.Context, email string) error
}

// IRequestRepository 好友申请数据访问层接口
type IRequestRepository interface {
	// Create 创建好友申请，同向重复申请返回 ErrDuplicateKey
	Create(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error)
	// DeletePending 删除指定方向的待处理申请，返回删除行数
	DeletePending(ctx context.Context, senderUID, receiverUID string) (int64, error)
	// DeleteBothDirections 删除两个用户之间双向的待处理申请，返回删除行数
	DeleteBothDirections(ctx context.Context, uidA, uidB string) (int64, error)
	// ListReceived 查询收到的待处理申请，按创建时间倒序
	ListReceived(ctx context.Context, receiverUID string) ([]*model.FriendRequest, error)
	// ListReceivedSenderUIDs 仅返回收到的待处理申请的发送方 uid，无缓存副作用
	ListReceivedSenderUIDs(ctx context.Context, receiverUID string) ([]string, error)
	// ListSent 查询发出的待处理申请，按创建时间倒序
	ListSent(ctx context.Context, senderUID string) ([]*model.FriendRequest, error)
	// ExistsPending 判断指定方向是否存在待处理申请
	ExistsPending(ctx context.Context, senderUID, receiverUID string) (bool, error)
	// CountReceived 统计收到的待处理申请数量
	CountReceived(ctx context.Context, receiverUID string) (int64, error)
}

// IFriendRepository 好友关系数据访问层接口
type IFriendRepository interface {
	// CreatePair 成对插入 (a,b) 与 (b,a)，已存在的行静默跳过
	CreatePair(ctx context.Context, uidA, uidB string) error
	// DeletePair 成对删除 (a,b) 与 (b,a)，返回删除行数
	DeletePair(ctx context.Context, uidA, uidB string) (int64, error)
	// IsFriend 判断两个用户是否为好友
	IsFriend(ctx context.Context, uidA, uidB string) (bool, error)
	// ListFriendUIDs 返回指定用户的全部好友 uid
	ListFriendUIDs(ctx context.Context, uid string) ([]string, error)
}

// IMessageRepository 单聊消息数据访问层接口
type IMessageRepository interface {
	// Create 落库一条消息，Id 由调用前生成的雪花 id 填入
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
	// ListBetween 查询两个用户之间的双向历史消息，按创建时间升序；
	// limit > 0 时取最新的 limit 条，limit <= 0 返回全量历史
	ListBetween(ctx context.Context, uidA, uidB string, limit int) ([]*model.Message, error)
}
