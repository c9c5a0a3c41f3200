package repository

import (
	"context"

	"ChatFlowServer/model"
	"ChatFlowServer/pkg/util"

	"gorm.io/gorm"
)

// messageRepositoryImpl 单聊消息数据访问层实现
// 消息只追加不修改，历史查询按会话双向扫索引，暂不引入缓存。
type messageRepositoryImpl struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &messageRepositoryImpl{db: db}
}

// Create 落库一条消息
// Id 未填时生成雪花 id，保证分布式部署下全局有序且不冲突。
func (r *messageRepositoryImpl) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.Id == 0 {
		msg.Id = util.NextID()
	}

	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return msg, nil
}

// ListBetween 查询两个用户之间的双向历史消息，按创建时间升序返回。
// limit > 0 时取最新的 limit 条，limit <= 0 返回全量历史。
func (r *messageRepositoryImpl) ListBetween(ctx context.Context, uidA, uidB string, limit int) ([]*model.Message, error) {
	query := r.db.WithContext(ctx).
		Where("(sender_uid = ? AND receiver_uid = ?) OR (sender_uid = ? AND receiver_uid = ?)",
			uidA, uidB, uidB, uidA)

	var messages []*model.Message
	if limit > 0 {
		// 截断窗口必须落在最新一段：先倒序取 limit 条，再翻转回升序
		err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error
		if err != nil {
			return nil, WrapDBError(err)
		}
		reverseMessages(messages)
		return messages, nil
	}

	err := query.Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return messages, nil
}

// reverseMessages 原地翻转消息切片
func reverseMessages(messages []*model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
