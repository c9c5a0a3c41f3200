package repository

import (
	"context"

	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/internal/mq"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// friendRepositoryImpl 好友关系数据访问层实现
type friendRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFriendRepository 创建好友关系仓储实例
func NewFriendRepository(db *gorm.DB, redisClient *redis.Client) IFriendRepository {
	return &friendRepositoryImpl{db: db, redisClient: redisClient}
}

// CreatePair 成对插入 (a,b) 与 (b,a)
// OnConflict DoNothing 保证重复同意是幂等操作，不报错也不产生重复行。
func (r *friendRepositoryImpl) CreatePair(ctx context.Context, uidA, uidB string) error {
	rows := []model.UserFriend{
		{UserUid: uidA, FriendUid: uidB},
		{UserUid: uidB, FriendUid: uidA},
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).
		Error
	if err != nil {
		return WrapDBError(err)
	}

	// 增量更新双方的好友集合缓存（仅 key 存在时）
	r.addFriendToCache(ctx, uidA, uidB)
	r.addFriendToCache(ctx, uidB, uidA)

	return nil
}

// DeletePair 成对删除 (a,b) 与 (b,a)
func (r *friendRepositoryImpl) DeletePair(ctx context.Context, uidA, uidB string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(user_uid = ? AND friend_uid = ?) OR (user_uid = ? AND friend_uid = ?)",
			uidA, uidB, uidB, uidA).
		Delete(&model.UserFriend{})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	if result.RowsAffected > 0 {
		r.removeFriendFromCache(ctx, uidA, uidB)
		r.removeFriendFromCache(ctx, uidB, uidA)
	}

	return result.RowsAffected, nil
}

// IsFriend 判断两个用户是否为好友
// 优先查 Redis 好友集合，未命中或异常降级 MySQL
func (r *friendRepositoryImpl) IsFriend(ctx context.Context, uidA, uidB string) (bool, error) {
	if r.redisClient != nil {
		cacheKey := rediskey.FriendSetKey(uidA)
		isMember, err := r.redisClient.SIsMember(ctx, cacheKey, uidB).Result()
		if err == nil {
			if isMember {
				return true, nil
			}
			// 否定答案只有在 key 存在时才可信
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
		Model(&model.UserFriend{}).
		Where("user_uid = ? AND friend_uid = ?", uidA, uidB).
		Count(&count).
		Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// ListFriendUIDs 返回指定用户的全部好友 uid
// 优先查 Redis 好友集合，未命中回源 MySQL 并异步重建缓存
func (r *friendRepositoryImpl) ListFriendUIDs(ctx context.Context, uid string) ([]string, error) {
	if r.redisClient != nil {
		cacheKey := rediskey.FriendSetKey(uid)
		members, err := r.redisClient.SMembers(ctx, cacheKey).Result()
		if err == nil && len(members) > 0 {
			// 概率续期：1% 概率续期避免热点 key 过期
			if getRandomBool(0.01) {
				if err := r.redisClient.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.FriendSetTTL)).Err(); err != nil {
					LogRedisError(ctx, err)
				}
			}

			uids := make([]string, 0, len(members))
			for _, m := range members {
				if m != emptyPlaceholder {
					uids = append(uids, m)
				}
			}
			return uids, nil
		}
		if err != nil {
			LogRedisError(ctx, err)
		}
	}

	var uids []string
	err := r.db.WithContext(ctx).
		Model(&model.UserFriend{}).
		Where("user_uid = ?", uid).
		Pluck("friend_uid", &uids).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	r.rebuildFriendCacheAsync(ctx, uid, uids)

	return uids, nil
}

// addFriendToCache 增量添加好友集合缓存（仅 key 存在时）
func (r *friendRepositoryImpl) addFriendToCache(ctx context.Context, uid, friendUID string) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.FriendSetKey(uid)
	luaScript := redis.NewScript(luaAddFriendIfExists)
	expireSeconds := int(getRandomExpireTime(rediskey.FriendSetTTL).Seconds())
	_, err := luaScript.Run(ctx, r.redisClient,
		[]string{cacheKey},
		friendUID,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		// 增量失败则删 key，下次读接口全量重建
		task := mq.BuildDelTask(cacheKey).
			WithSource("FriendRepository.addFriendToCache")
		LogAndRetryRedisError(ctx, task, err)
	}
}

// removeFriendFromCache 增量移除好友集合缓存（仅 key 存在时）
func (r *friendRepositoryImpl) removeFriendFromCache(ctx context.Context, uid, friendUID string) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.FriendSetKey(uid)
	luaScript := redis.NewScript(luaRemoveFriendIfExists)
	expireSeconds := int(getRandomExpireTime(rediskey.FriendSetTTL).Seconds())
	_, err := luaScript.Run(ctx, r.redisClient,
		[]string{cacheKey},
		friendUID,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		task := mq.BuildDelTask(cacheKey).
			WithSource("FriendRepository.removeFriendFromCache")
		LogAndRetryRedisError(ctx, task, err)
	}
}

// rebuildFriendCacheAsync 回源后异步重建好友集合缓存
func (r *friendRepositoryImpl) rebuildFriendCacheAsync(ctx context.Context, uid string, friendUIDs []string) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.FriendSetKey(uid)
	async.RunSafe(ctx, func(runCtx context.Context) {
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(friendUIDs) == 0 {
			// 空值占位，防止缓存穿透
			pipe.SAdd(runCtx, cacheKey, emptyPlaceholder)
			pipe.Expire(runCtx, cacheKey, rediskey.FriendSetEmptyTTL)
		} else {
			members := make([]interface{}, 0, len(friendUIDs))
			for _, f := range friendUIDs {
				members = append(members, f)
			}
			pipe.SAdd(runCtx, cacheKey, members...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.FriendSetTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
