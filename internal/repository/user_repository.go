package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/internal/mq"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/async"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// localCacheSize 进程内 LRU 容量，热点用户档案的一级缓存
const localCacheSize = 4096

// localCacheTTL 进程内 LRU 过期时间，必须远小于 Redis TTL 控制不一致窗口
const localCacheTTL = 30 * time.Second

// userRepositoryImpl 用户档案数据访问层实现
// 读路径三级：进程内 LRU -> Redis -> MySQL
type userRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
	localCache  *lru.LRU[string, *model.User]
}

// NewUserRepository 创建用户档案仓储实例
func NewUserRepository(db *gorm.DB, redisClient *redis.Client) IUserRepository {
	return &userRepositoryImpl{
		db:          db,
		redisClient: redisClient,
		localCache:  lru.NewLRU[string, *model.User](localCacheSize, nil, localCacheTTL),
	}
}

// Create 创建用户
func (r *userRepositoryImpl) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return user, nil
}

// GetByUID 根据 uid 查询用户
func (r *userRepositoryImpl) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	// ==================== 1. 进程内 LRU ====================
	if cached, ok := r.localCache.Get(uid); ok {
		return cached, nil
	}

	// ==================== 2. Redis 缓存 ====================
	cacheKey := rediskey.UserInfoKey(uid)
	if r.redisClient != nil {
		cachedData, err := r.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			// 空占位符表示用户不存在
			if cachedData == "{}" {
				return nil, nil
			}
			var user model.User
			if err := json.Unmarshal([]byte(cachedData), &user); err == nil {
				r.localCache.Add(uid, &user)
				return &user, nil
			}
		}
		if err != nil && err != redis.Nil {
			LogRedisError(ctx, err) // 记录日志 降级处理
		}
	}

	// ==================== 3. 回源 MySQL ====================
	var user model.User
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 存一份空占位到 Redis，防止缓存穿透
			r.setCacheAsync(ctx, cacheKey, "{}", getRandomExpireTime(rediskey.UserInfoEmptyTTL))
			return nil, nil
		}
		return nil, WrapDBError(err)
	}

	// ==================== 4. 回填缓存 ====================
	r.localCache.Add(uid, &user)
	if userJSON, err := json.Marshal(&user); err == nil {
		r.setCacheAsync(ctx, cacheKey, string(userJSON), getRandomExpireTime(rediskey.UserInfoTTL))
	}

	return &user, nil
}

// GetByEmail 根据邮箱查询用户
// 邮箱查询主要出现在注册与资料接口，频率低，直接查 MySQL
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// BatchGetByUIDs 批量查询用户档案
// 返回结果按传入的 uids 顺序排列，不存在的用户不包含在结果中
func (r *userRepositoryImpl) BatchGetByUIDs(ctx context.Context, uids []string) ([]*model.User, error) {
	if len(uids) == 0 {
		return []*model.User{}, nil
	}

	// 用于汇总所有查询结果 (uid -> *User, nil 表示用户不存在)
	userMap := make(map[string]*model.User, len(uids))
	missUIDs := make([]string, 0, len(uids))

	// ==================== 1. 批量查询 Redis ====================
	var cachedValues []interface{}
	if r.redisClient != nil {
		keys := make([]string, 0, len(uids))
		for _, uid := range uids {
			keys = append(keys, rediskey.UserInfoKey(uid))
		}

		var err error
		cachedValues, err = r.redisClient.MGet(ctx, keys...).Result()
		if err != nil && err != redis.Nil {
			LogRedisError(ctx, err)
			// Redis 异常时降级走 DB 全量查询
			cachedValues = nil
		}
	}

	if cachedValues != nil {
		for i, value := range cachedValues {
			uid := uids[i]

			if value == nil {
				// key 不存在，需要回源
				missUIDs = append(missUIDs, uid)
				continue
			}

			var raw string
			switch v := value.(type) {
			case string:
				raw = v
			case []byte:
				raw = string(v)
			default:
				missUIDs = append(missUIDs, uid)
				continue
			}

			// 空占位符 `{}` 表示用户不存在，标记为已处理（nil），不回源
			if raw == "" || raw == "{}" {
				userMap[uid] = nil
				continue
			}

			var user model.User
			if err := json.Unmarshal([]byte(raw), &user); err != nil {
				missUIDs = append(missUIDs, uid)
				continue
			}
			userMap[uid] = &user
		}
	} else {
		// Redis 完全不可用，全部回源
		missUIDs = append(missUIDs, uids...)
	}

	// ==================== 2. 对未命中部分回源 MySQL ====================
	if len(missUIDs) > 0 {
		var dbUsers []*model.User
		err := r.db.WithContext(ctx).
			Where("uid IN ?", missUIDs).
			Find(&dbUsers).
			Error
		if err != nil {
			return nil, WrapDBError(err)
		}

		foundUIDs := make(map[string]struct{}, len(dbUsers))
		for _, user := range dbUsers {
			if user != nil && user.Uid != "" {
				userMap[user.Uid] = user
				foundUIDs[user.Uid] = struct{}{}
			}
		}

		// 标记不存在的用户
		for _, uid := range missUIDs {
			if _, ok := foundUIDs[uid]; !ok {
				userMap[uid] = nil
			}
		}

		// ==================== 3. 异步回填 Redis 缓存 ====================
		if r.redisClient != nil {
			async.RunSafe(ctx, func(runCtx context.Context) {
				pipe := r.redisClient.Pipeline()

				for _, user := range dbUsers {
					if user == nil || user.Uid == "" {
						continue
					}
					userJSON, err := json.Marshal(user)
					if err != nil {
						continue
					}
					pipe.Set(runCtx, rediskey.UserInfoKey(user.Uid), userJSON, getRandomExpireTime(rediskey.UserInfoTTL))
				}

				// 对不存在的 uid 写入空占位，避免缓存穿透
				for _, uid := range missUIDs {
					if _, ok := foundUIDs[uid]; ok {
						continue
					}
					pipe.Set(runCtx, rediskey.UserInfoKey(uid), "{}", getRandomExpireTime(rediskey.UserInfoEmptyTTL))
				}

				if _, err := pipe.Exec(runCtx); err != nil {
					LogRedisError(runCtx, err)
				}
			}, 0)
		}
	}

	// ==================== 4. 按原始 uids 顺序构建结果 ====================
	result := make([]*model.User, 0, len(uids))
	for _, uid := range uids {
		if user, ok := userMap[uid]; ok && user != nil {
			result = append(result, user)
		}
	}

	return result, nil
}

// UpdateProfile 更新资料字段，空值跳过
func (r *userRepositoryImpl) UpdateProfile(ctx context.Context, uid, name, image, cover string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if name != "" {
		updates["name"] = name
	}
	if image != "" {
		updates["image"] = image
	}
	if cover != "" {
		updates["cover"] = cover
	}

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ?", uid).
		Updates(updates)
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.invalidateCache(ctx, uid, "UserRepository.UpdateProfile")
	return nil
}

// MarkVerified 标记邮箱验证通过
func (r *userRepositoryImpl) MarkVerified(ctx context.Context, email string) error {
	now := time.Now()
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return WrapDBError(err)
	}

	err = r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_at": &now,
		}).Error
	if err != nil {
		return WrapDBError(err)
	}

	r.invalidateCache(ctx, user.Uid, "UserRepository.MarkVerified")
	return nil
}

// ListAllUIDs 返回全部用户 uid
// 候选人推荐需要全量集合，用户规模可控（原型定位），直接全表扫 uid 列
func (r *userRepositoryImpl) ListAllUIDs(ctx context.Context) ([]string, error) {
	var uids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Pluck("uid", &uids).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return uids, nil
}

// SaveVerifyCode 保存邮箱验证码
// Lua 原子实现 1 分钟发送频率限制，超限返回 ErrDuplicateKey
func (r *userRepositoryImpl) SaveVerifyCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if r.redisClient == nil {
		return ErrRedis
	}

	// 1 分钟内只允许发送一次
	minuteKey := rediskey.VerifyCodeMinuteKey(email)
	luaScript := redis.NewScript(luaIncrementWithExpire)
	count, err := luaScript.Run(ctx, r.redisClient,
		[]string{minuteKey},
		int(rediskey.VerifyCodeMinuteTTL.Seconds()),
	).Int64()
	if err != nil {
		return WrapRedisError(err)
	}
	if count > 1 {
		return ErrDuplicateKey
	}

	if err := r.redisClient.Set(ctx, rediskey.VerifyCodeKey(email), code, ttl).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// GetVerifyCode 读取邮箱验证码
func (r *userRepositoryImpl) GetVerifyCode(ctx context.Context, email string) (string, error) {
	if r.redisClient == nil {
		return "", ErrRedis
	}
	code, err := r.redisClient.Get(ctx, rediskey.VerifyCodeKey(email)).Result()
	if err != nil {
		return "", WrapRedisError(err)
	}
	return code, nil
}

// DeleteVerifyCode 删除已使用的验证码
func (r *userRepositoryImpl) DeleteVerifyCode(ctx context.Context, email string) error {
	if r.redisClient == nil {
		return nil
	}
	if err := r.redisClient.Del(ctx, rediskey.VerifyCodeKey(email)).Err(); err != nil {
		task := mq.BuildDelTask(rediskey.VerifyCodeKey(email)).
			WithSource("UserRepository.DeleteVerifyCode")
		LogAndRetryRedisError(ctx, task, err)
	}
	return nil
}

// setCacheAsync 异步写入 Redis 缓存，不阻塞主流程
func (r *userRepositoryImpl) setCacheAsync(ctx context.Context, key, value string, ttl time.Duration) {
	if r.redisClient == nil {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Set(runCtx, key, value, ttl).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// invalidateCache 更新成功后失效两级缓存
func (r *userRepositoryImpl) invalidateCache(ctx context.Context, uid, source string) {
	r.localCache.Remove(uid)

	if r.redisClient == nil {
		return
	}
	cacheKey := rediskey.UserInfoKey(uid)
	if err := r.redisClient.Del(ctx, cacheKey).Err(); err != nil {
		// 发送到重试队列
		task := mq.BuildDelTask(cacheKey).WithSource(source)
		LogAndRetryRedisError(ctx, task, err)
	}
}
