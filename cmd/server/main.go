package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ChatFlowServer/config"
	"ChatFlowServer/internal/handler"
	"ChatFlowServer/internal/manager"
	"ChatFlowServer/internal/middleware"
	"ChatFlowServer/internal/mq"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/internal/router"
	v1 "ChatFlowServer/internal/router/v1"
	"ChatFlowServer/internal/server"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/internal/svc"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/async"
	"ChatFlowServer/pkg/kafka"
	"ChatFlowServer/pkg/logger"
	"ChatFlowServer/pkg/mail"
	pkgminio "ChatFlowServer/pkg/minio"
	"ChatFlowServer/pkg/mysql"
	pkgredis "ChatFlowServer/pkg/redis"
	"ChatFlowServer/pkg/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 1. 初始化日志
	logCfg := config.DefaultLoggerConfig()
	zl, err := logger.Build(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 2. 初始化MySQL
	dbCfg := config.DefaultMySQLConfig()
	db, err := mysql.Build(dbCfg)
	if err != nil {
		log.Fatalf("初始化MySQL失败: %v", err)
	}
	mysql.ReplaceGlobal(db)

	if err := db.AutoMigrate(
		&model.User{},
		&model.FriendRequest{},
		&model.UserFriend{},
		&model.Message{},
	); err != nil {
		log.Fatalf("同步表结构失败: %v", err)
	}

	// 3. 初始化Redis
	redisCfg := config.DefaultRedisConfig()
	// 调整 Redis 读写超时时间为 50ms（快速失败）
	redisCfg.ReadTimeout = 50 * time.Millisecond
	redisCfg.WriteTimeout = 50 * time.Millisecond

	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		// Redis 初始化失败不阻塞启动（降级到只用 MySQL）
		logger.Warn(ctx, "Redis 初始化失败，将降级到 MySQL-Only 模式",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 4. 初始化 Kafka（仅在 Redis 可用时启动）
	var kafkaProducer *kafka.Producer
	var redisConsumer *mq.RedisRetryConsumer
	if redisClient != nil {
		kafkaCfg := config.DefaultKafkaConfig()

		kafkaProducer = kafka.NewProducer(kafkaCfg.Brokers, kafkaCfg.RedisRetryTopic)
		mq.SetGlobalProducer(kafkaProducer)
		logger.Info(ctx, "Kafka Producer 初始化成功",
			logger.String("brokers", kafkaCfg.Brokers[0]),
			logger.String("topic", kafkaCfg.RedisRetryTopic),
		)

		// 创建 Redis 重试消费者
		zapLogger := kafka.NewZapLoggerAdapter(logger.L())
		redisConsumer = mq.NewRedisRetryConsumer(
			kafkaCfg.Brokers,
			kafkaCfg.RedisRetryTopic,
			kafkaCfg.ConsumerConfig.GroupID,
			redisClient,
			kafkaProducer,
			zapLogger,
		)

		go func() {
			logger.Info(ctx, "Redis 重试消费者启动中",
				logger.String("topic", kafkaCfg.RedisRetryTopic),
				logger.String("group_id", kafkaCfg.ConsumerConfig.GroupID),
			)
			if err := redisConsumer.Start(ctx); err != nil {
				logger.Error(ctx, "Redis 重试消费者运行错误", logger.ErrorField("error", err))
			}
		}()

		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				logger.Error(ctx, "关闭 Kafka Producer 失败", logger.ErrorField("error", err))
			}
			if err := redisConsumer.Close(); err != nil {
				logger.Error(ctx, "关闭 Redis 重试消费者失败", logger.ErrorField("error", err))
			}
		}()
	}

	// 5. 初始化小组件
	util.InitJWT(config.DefaultJWTConfig())
	if err := util.InitSnowflake(config.DefaultSnowflakeConfig().NodeID); err != nil {
		log.Fatalf("初始化雪花算法失败: %v", err)
	}
	if err := async.Init(config.DefaultAsyncConfig()); err != nil {
		log.Fatalf("初始化协程池失败: %v", err)
	}
	defer async.Release()

	middleware.InitRedisRateLimiter(50, 100, redisClient)

	// MinIO 不可用时仅禁用图片上传，不阻塞启动
	minioClient, err := pkgminio.Build(config.DefaultMinIOConfig())
	if err != nil {
		logger.Warn(ctx, "MinIO 初始化失败，图片上传功能不可用",
			logger.ErrorField("error", err),
		)
		minioClient = nil
	} else {
		pkgminio.ReplaceGlobal(minioClient)
	}

	mailSender := mail.NewSender(config.DefaultMailConfig())

	// 6. 组装依赖 - Repository 层
	userRepo := repository.NewUserRepository(db, redisClient)
	requestRepo := repository.NewRequestRepository(db, redisClient)
	friendRepo := repository.NewFriendRepository(db, redisClient)
	messageRepo := repository.NewMessageRepository(db)

	// 7. 组装依赖 - Service 层
	userService := service.NewUserService(userRepo, mailSender)
	relationService := service.NewRelationService(userRepo, requestRepo, friendRepo)
	messageService := service.NewMessageService(messageRepo, minioClient)

	presence := manager.NewPresenceManager()
	relayService := svc.NewRelayService(presence, messageService, redisClient)

	// 8. 组装依赖 - Handler 层
	userHandler := v1.NewUserHandler(userService)
	friendHandler := v1.NewFriendHandler(relationService, relayService)
	messageHandler := v1.NewMessageHandler(messageService, relayService)
	wsHandler := handler.NewWSHandler(relayService)

	engine := router.New(userHandler, friendHandler, messageHandler, wsHandler)

	// 在线人数指标定时上报
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				middleware.SetOnlineUsers(presence.Count())
			}
		}
	}()

	// 9. 启动 HTTP 服务（阻塞到收到退出信号）
	srvCfg := config.DefaultServerConfig()
	if err := server.Run(ctx, srvCfg, engine, func() {
		// 先关在线表：停止接收新绑定并关闭全部 WebSocket 连接
		presence.Shutdown()
	}); err != nil {
		log.Fatalf("HTTP 服务运行失败: %v", err)
	}
}
