package service

import (
	"context"
	"io"

	"ChatFlowServer/internal/dto"
)

// ==================== 用户服务接口 ====================

// IUserService 用户服务接口
// 职责：用户档案创建与查询、资料更新、邮箱验证
type IUserService interface {
	// CreateUser 创建用户，uid/email 冲突返回 CodeUserAlreadyExist
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserProfile, error)

	// GetUserByEmail 按邮箱查询用户，不存在返回 CodeUserNotFound
	GetUserByEmail(ctx context.Context, email string) (*dto.UserProfile, error)

	// UpdateUser 按邮箱更新用户资料
	UpdateUser(ctx context.Context, email string, req *dto.UpdateUserRequest) (*dto.UserProfile, error)

	// SendVerifyCode 发送邮箱验证码
	SendVerifyCode(ctx context.Context, email string) error

	// VerifyEmail 校验验证码并标记邮箱已验证
	VerifyEmail(ctx context.Context, email, code string) error
}

// ==================== 好友关系服务接口 ====================

// IRelationService 好友关系服务接口
// 职责：好友申请状态机、好友关系维护、候选人推荐
type IRelationService interface {
	// SendRequest 发送好友申请
	// 同向重复申请返回 CodeFriendRequestSent；自己加自己返回 CodeRequestSelf；
	// 反方向的申请互相独立，允许 A->B 与 B->A 并存。
	SendRequest(ctx context.Context, senderUID, receiverUID string) error

	// AcceptRequest 同意好友申请（receiverUID 为当前用户）
	// 删除双向申请记录并建立对称好友关系；无待处理申请时同样放行（幂等语义）。
	AcceptRequest(ctx context.Context, receiverUID, senderUID string) error

	// RejectRequest 拒绝好友申请，申请不存在时幂等成功
	RejectRequest(ctx context.Context, receiverUID, senderUID string) error

	// CancelRequest 撤回自己发出的申请，申请不存在时幂等成功
	CancelRequest(ctx context.Context, senderUID, receiverUID string) error

	// RemoveFriend 解除好友关系，关系不存在时幂等成功
	RemoveFriend(ctx context.Context, uid, friendUID string) error

	// ListCandidates 候选人推荐：全量用户减去自己、好友、双向待处理申请对象
	ListCandidates(ctx context.Context, uid string) ([]*dto.UserSummary, error)

	// ListFriends 好友列表（携带档案）
	ListFriends(ctx context.Context, uid string) ([]*dto.UserSummary, error)

	// ListReceivedRequests 收到的待处理申请（携带发送方档案）
	ListReceivedRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error)

	// ListSentRequests 发出的待处理申请（携带接收方档案）
	ListSentRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error)

	// CountReceivedRequests 收到的待处理申请数量
	CountReceivedRequests(ctx context.Context, uid string) (int64, error)

	// IsFriend 判断是否好友
	IsFriend(ctx context.Context, uidA, uidB string) (bool, error)
}

// ==================== 消息服务接口 ====================

// IMessageService 消息服务接口
// 职责：消息落库、历史查询、图片上传
type IMessageService interface {
	// SendMessage 落库一条消息并返回视图
	// sender/receiver 为空或 text/image 同时为空返回 CodeMessageEmptyBody。
	SendMessage(ctx context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error)

	// ListMessages 查询与 peer 的双向历史消息，按时间升序
	ListMessages(ctx context.Context, uid, peerUID string) ([]*dto.MessageView, error)

	// UploadImage 上传消息图片，返回可访问 URL
	UploadImage(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error)
}
