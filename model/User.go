package model

import "time"

// User 注册用户档案。
// Uid 由外部认证体系签发，服务内只作为不可变主键使用；长度上限 char(64)。
type User struct {
	Id         int64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uid        string     `gorm:"column:uid;type:char(64);not null;uniqueIndex:uidx_uid;comment:用户uid"`
	Name       string     `gorm:"column:name;type:varchar(64);comment:昵称"`
	Email      string     `gorm:"column:email;type:varchar(128);not null;uniqueIndex:uidx_email;comment:邮箱"`
	Image      string     `gorm:"column:image;type:varchar(255);comment:头像url"`
	Cover      string     `gorm:"column:cover;type:varchar(255);comment:封面url"`
	Role       string     `gorm:"column:role;type:varchar(16);not null;default:user;comment:角色"`
	IsVerified bool       `gorm:"column:is_verified;not null;default:0;comment:邮箱是否已验证"`
	VerifiedAt *time.Time `gorm:"column:verified_at;comment:验证时间"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "user" }
