package model

import "time"

// Message 单聊消息，只追加不修改。
// Id 为雪花id（非自增），落库前由服务端生成，便于客户端去重。
// idx_pair 支撑按会话双向查询（查询时 sender/receiver 两个方向各走一次索引）。
type Message struct {
	Id          int64     `gorm:"column:id;primaryKey;comment:雪花id"`
	SenderUid   string    `gorm:"column:sender_uid;type:char(64);not null;index:idx_pair;comment:发送者uid"`
	ReceiverUid string    `gorm:"column:receiver_uid;type:char(64);not null;index:idx_pair;index:idx_receiver;comment:接收者uid"`
	Text        string    `gorm:"column:text;type:varchar(2048);comment:文本内容"`
	Image       string    `gorm:"column:image;type:varchar(255);comment:图片url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index:idx_created_at"`
}

func (Message) TableName() string { return "message" }
