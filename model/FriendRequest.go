package model

import "time"

// FriendRequest 待处理的好友申请。
// 约束：uniqueIndex:uidx_sender_receiver 保证同一有序对 (sender, receiver)
// 最多一条待处理记录；反方向的申请是独立的一行。
// 申请被同意或拒绝后整行删除，不保留历史。
type FriendRequest struct {
	Id          int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	SenderUid   string    `gorm:"column:sender_uid;type:char(64);not null;uniqueIndex:uidx_sender_receiver;comment:申请人uid"`
	ReceiverUid string    `gorm:"column:receiver_uid;type:char(64);not null;uniqueIndex:uidx_sender_receiver;index:idx_receiver;comment:接收人uid"`
	Status      int8      `gorm:"column:status;not null;default:0;comment:状态 0.待处理"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (FriendRequest) TableName() string { return "friend_request" }
