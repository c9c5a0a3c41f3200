package model

import "time"

// UserFriend 好友关系的单向行。
// 关系对称性由写入路径保证：同意申请时成对插入 (A,B) 与 (B,A)，
// 解除好友时成对删除。uniqueIndex:uidx_user_friend 防止重复行。
type UserFriend struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUid   string    `gorm:"column:user_uid;type:char(64);not null;uniqueIndex:uidx_user_friend;comment:用户uid"`
	FriendUid string    `gorm:"column:friend_uid;type:char(64);not null;index;uniqueIndex:uidx_user_friend;comment:好友uid"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserFriend) TableName() string { return "user_friend" }
