package dto

// SendFriendRequestRequest 发送好友申请请求
type SendFriendRequestRequest struct {
	ReceiverUid string `json:"receiverUid" binding:"required"`
}

// HandleFriendRequestRequest 处理好友申请请求（同意/拒绝）
// SenderUid 为申请发起方；当前用户是接收方。
type HandleFriendRequestRequest struct {
	SenderUid string `json:"senderUid" binding:"required"`
}

// CancelFriendRequestRequest 撤回好友申请请求
type CancelFriendRequestRequest struct {
	ReceiverUid string `json:"receiverUid" binding:"required"`
}

// RemoveFriendRequest 解除好友关系请求
type RemoveFriendRequest struct {
	FriendUid string `json:"friendUid" binding:"required"`
}

// FriendRequestView 好友申请视图，携带对端档案
type FriendRequestView struct {
	SenderUid   string `json:"senderUid"`
	ReceiverUid string `json:"receiverUid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Image       string `json:"image"`
	CreatedAt   int64  `json:"createdAt"`
}

// RequestCountView 待处理申请数量视图
type RequestCountView struct {
	Count int64 `json:"count"`
}
