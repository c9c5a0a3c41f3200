package repository

import (
	"context"

	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/internal/mq"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// requestRepositoryImpl 好友申请数据访问层实现
type requestRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewRequestRepository 创建好友申请仓储实例
func NewRequestRepository(db *gorm.DB, redisClient *redis.Client) IRequestRepository {
	return &requestRepositoryImpl{db: db, redisClient: redisClient}
}

// Create 创建好友申请
// 唯一索引 (sender_uid, receiver_uid) 保证同向申请只有一条，冲突映射为 ErrDuplicateKey。
// 反方向申请是独立的一行，允许 A->B 与 B->A 同时存在。
func (r *requestRepositoryImpl) Create(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, WrapDBError(err)
	}

	if r.redisClient == nil {
		return req, nil
	}

	// 尽力而为地更新接收方的待处理申请缓存。
	// 关键原则：只有 Key 存在时才增量添加，Key 不存在时不操作（让读接口负责全量加载）。
	// 这避免了 Key 过期后增量添加导致缓存数据不完整的问题。
	cacheKey := rediskey.RequestPendingKey(req.ReceiverUid)
	luaScript := redis.NewScript(luaAddPendingRequestIfExists)
	expireSeconds := int(getRandomExpireTime(rediskey.RequestPendingTTL).Seconds())
	_, err := luaScript.Run(ctx, r.redisClient,
		[]string{cacheKey},
		req.CreatedAt.Unix(),
		req.SenderUid,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		LogRedisError(ctx, err)
	}

	return req, nil
}

// DeletePending 删除指定方向的待处理申请
func (r *requestRepositoryImpl) DeletePending(ctx context.Context, senderUID, receiverUID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sender_uid = ? AND receiver_uid = ?", senderUID, receiverUID).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	if result.RowsAffected > 0 {
		r.removePendingFromCache(ctx, receiverUID, senderUID)
	}

	return result.RowsAffected, nil
}

// DeleteBothDirections 删除两个用户之间双向的待处理申请
// 同意申请时调用：无论哪个方向发起的申请都一并清掉。
func (r *requestRepositoryImpl) DeleteBothDirections(ctx context.Context, uidA, uidB string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(sender_uid = ? AND receiver_uid = ?) OR (sender_uid = ? AND receiver_uid = ?)",
			uidA, uidB, uidB, uidA).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	if result.RowsAffected > 0 {
		r.removePendingFromCache(ctx, uidA, uidB)
		r.removePendingFromCache(ctx, uidB, uidA)
	}

	return result.RowsAffected, nil
}

// ListReceived 查询收到的待处理申请，按创建时间倒序
func (r *requestRepositoryImpl) ListReceived(ctx context.Context, receiverUID string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_uid = ? AND status = ?", receiverUID, 0).
		Order("created_at DESC").
		Find(&requests).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	// 读到全量数据，顺手重建待处理缓存
	r.rebuildPendingCacheAsync(ctx, receiverUID)

	return requests, nil
}

// ListReceivedSenderUIDs 仅返回收到的待处理申请的发送方 uid
// 供候选人推荐做集合减法，单列 Pluck 且不触发缓存重建
func (r *requestRepositoryImpl) ListReceivedSenderUIDs(ctx context.Context, receiverUID string) ([]string, error) {
	var uids []string
	err := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("receiver_uid = ? AND status = ?", receiverUID, 0).
		Pluck("sender_uid", &uids).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return uids, nil
}

// ListSent 查询发出的待处理申请，按创建时间倒序
func (r *requestRepositoryImpl) ListSent(ctx context.Context, senderUID string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_uid = ? AND status = ?", senderUID, 0).
		Order("created_at DESC").
		Find(&requests).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return requests, nil
}

// ExistsPending 判断指定方向是否存在待处理申请
// 优先查接收方的待处理 ZSet，未命中或异常降级 MySQL
func (r *requestRepositoryImpl) ExistsPending(ctx context.Context, senderUID, receiverUID string) (bool, error) {
	if r.redisClient != nil {
		cacheKey := rediskey.RequestPendingKey(receiverUID)
		_, err := r.redisClient.ZScore(ctx, cacheKey, senderUID).Result()
		if err == nil {
			return true, nil
		}
		if err == redis.Nil {
			// member 不存在：可能是 key 不存在（需要回源），也可能是确实没有申请。
			// 只有 key 存在时才能信任否定答案。
			exists, existsErr := r.redisClient.Exists(ctx, cacheKey).Result()
			if existsErr == nil && exists == 1 {
				return false, nil
			}
			if existsErr != nil {
				LogRedisError(ctx, existsErr)
			}
		} else {
			LogRedisError(ctx, err)
		}
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("sender_uid = ? AND receiver_uid = ? AND status = ?", senderUID, receiverUID, 0).
		Count(&count).
		Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// CountReceived 统计收到的待处理申请数量
// 待处理 ZSet 在缓存中时直接取基数，未命中降级 MySQL COUNT。
func (r *requestRepositoryImpl) CountReceived(ctx context.Context, receiverUID string) (int64, error) {
	if r.redisClient != nil {
		cacheKey := rediskey.RequestPendingKey(receiverUID)
		pipe := r.redisClient.Pipeline()
		existsCmd := pipe.Exists(ctx, cacheKey)
		cardCmd := pipe.ZCard(ctx, cacheKey)
		scoreCmd := pipe.ZScore(ctx, cacheKey, emptyPlaceholder)
		if _, err := pipe.Exec(ctx); err == nil || err == redis.Nil {
			if existsCmd.Val() == 1 {
				count := cardCmd.Val()
				// 空值占位符不计入数量
				if scoreCmd.Err() == nil {
					count--
				}
				return count, nil
			}
		} else {
			LogRedisError(ctx, err)
		}
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("receiver_uid = ? AND status = ?", receiverUID, 0).
		Count(&count).
		Error
	if err != nil {
		return 0, WrapDBError(err)
	}
	return count, nil
}

// removePendingFromCache 增量移除接收方待处理缓存中的一条申请
func (r *requestRepositoryImpl) removePendingFromCache(ctx context.Context, receiverUID, senderUID string) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.RequestPendingKey(receiverUID)
	luaScript := redis.NewScript(luaRemovePendingRequestIfExists)
	expireSeconds := int(getRandomExpireTime(rediskey.RequestPendingTTL).Seconds())
	_, err := luaScript.Run(ctx, r.redisClient,
		[]string{cacheKey},
		senderUID,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		// 增量移除失败则删整个 key，下次读接口全量重建
		task := mq.BuildDelTask(cacheKey).
			WithSource("RequestRepository.removePendingFromCache")
		LogAndRetryRedisError(ctx, task, err)
	}
}

// rebuildPendingCacheAsync 异步重建待处理申请的 Redis 缓存
// 注意：必须重新查询全量数据，不能使用分页数据
func (r *requestRepositoryImpl) rebuildPendingCacheAsync(ctx context.Context, receiverUID string) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.RequestPendingKey(receiverUID)
	async.RunSafe(ctx, func(runCtx context.Context) {
		var requests []model.FriendRequest
		err := r.db.WithContext(runCtx).
			Select("sender_uid", "created_at").
			Where("receiver_uid = ? AND status = ?", receiverUID, 0).
			Find(&requests).Error
		if err != nil {
			// 异步重建缓存失败静默忽略，不影响主流程
			return
		}

		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(requests) == 0 {
			// 空值占位，防止缓存穿透
			pipe.ZAdd(runCtx, cacheKey, redis.Z{
				Score:  0,
				Member: emptyPlaceholder,
			})
			pipe.Expire(runCtx, cacheKey, rediskey.RequestPendingEmptyTTL)
		} else {
			zs := make([]redis.Z, 0, len(requests))
			for _, req := range requests {
				zs = append(zs, redis.Z{
					Score:  float64(req.CreatedAt.Unix()),
					Member: req.SenderUid,
				})
			}
			pipe.ZAdd(runCtx, cacheKey, zs...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.RequestPendingTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
