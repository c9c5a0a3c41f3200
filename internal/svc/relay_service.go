package svc

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"ChatFlowServer/consts/redisKey"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/manager"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/pkg/logger"
	"ChatFlowServer/pkg/util"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenRequired 表示握手参数中缺少 token。
	ErrTokenRequired = errors.New("token is required")
	// ErrTokenInvalid 表示 token 非法或已过期。
	ErrTokenInvalid = errors.New("token is invalid")
)

// ==================== 消息类型常量 ====================

// 上行消息类型
const (
	TypeJoin          = "join"
	TypeFriendRequest = "friend-request"
	TypeSendMessage   = "send-message"
	TypeHeartbeat     = "heartbeat"
)

// 下行消息类型
const (
	TypeOnlineUsers      = "online-users"
	TypeNewFriendRequest = "new-friend-request"
	TypeReceiveMessage   = "receive-message"
	TypeHeartbeatAck     = "heartbeat_ack"
	TypeError            = "error"
)

// Session 保存连接鉴权后的身份信息。
// 该结构会在整个连接生命周期中复用，避免重复解析 token。
type Session struct {
	UserUID  string
	ClientIP string
}

// Envelope 定义 WebSocket 通用消息包格式。
// 约定：
// - Type: 消息类型（如 join/send-message）；
// - Data: 消息体（由上层按 Type 再解析）。
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData 定义 type=error 时的 data 结构。
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JoinData 上行 join 帧的 data 结构。
type JoinData struct {
	Uid string `json:"uid"`
}

// FriendRequestData 上行 friend-request 帧的 data 结构。
// 持久化由 HTTP 接口负责，这一帧只做实时转发。
type FriendRequestData struct {
	SenderUid   string `json:"senderUid"`
	ReceiverUid string `json:"receiverUid"`
	Name        string `json:"name,omitempty"`
	Image       string `json:"image,omitempty"`
}

// SendMessageData 上行 send-message 帧的 data 结构。
type SendMessageData struct {
	SenderUid   string `json:"senderUid"`
	ReceiverUid string `json:"receiverUid"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
}

// RelayService 实时转发核心服务。
// 职责：连接鉴权、在线表维护与镜像、presence 广播、
// 好友申请与消息的在线投递（离线即丢弃，持久化由存储层兜底）。
type RelayService struct {
	presence       *manager.PresenceManager
	messageService service.IMessageService
	redisClient    *redis.Client
}

// NewRelayService 创建转发服务实例。
func NewRelayService(presence *manager.PresenceManager, messageService service.IMessageService, redisClient *redis.Client) *RelayService {
	return &RelayService{
		presence:       presence,
		messageService: messageService,
		redisClient:    redisClient,
	}
}

// Presence 返回底层在线表（供 handler 注销与状态接口使用）。
func (s *RelayService) Presence() *manager.PresenceManager {
	return s.presence
}

// Authenticate 校验 WebSocket 握手参数与登录态。
// 校验流程：
// 1. 校验 token 是否为空；
// 2. 解析 JWT，校验 claims 基本字段；
// 3. 若 Redis 可用，校验 auth:at:{user_uid} 中存储的 token md5。
//
// 降级策略（Fail-Open）：
// - 当 Redis 异常不可用时，不直接拒绝连接，而是退化为仅 JWT 校验；
// - 这样可提升可用性，但会降低“被踢立即失效”的严格性。
func (s *RelayService) Authenticate(ctx context.Context, token, clientIP string) (*Session, error) {
	token = strings.TrimSpace(token)
	clientIP = strings.TrimSpace(clientIP)

	if token == "" {
		return nil, ErrTokenRequired
	}

	claims, err := util.ParseToken(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	// 外部认证服务登出时会删除该 key，借此实现"被踢立即失效"
	if s.redisClient != nil {
		key := rediskey.AccessTokenKey(claims.UserUID)
		storedHash, getErr := s.redisClient.Get(ctx, key).Result()
		switch {
		case getErr == redis.Nil:
			// key 不存在视为未登录态，但外部认证服务可能不写该 key，放行
		case getErr != nil:
			// Redis 短暂故障时采用 fail-open，优先保证连接服务可用性。
			logger.Warn(ctx, "连接鉴权读取 Redis 失败，降级为仅 JWT 校验",
				logger.String("user_uid", claims.UserUID),
				logger.ErrorField("error", getErr),
			)
		default:
			if storedHash != md5Hex(token) {
				return nil, ErrTokenInvalid
			}
		}
	}

	return &Session{
		UserUID:  claims.UserUID,
		ClientIP: clientIP,
	}, nil
}

// OnJoin 处理 join 帧：绑定用户与连接并广播最新在线列表。
// uid 为空时静默忽略（不绑定、不广播）。
// 后到者胜：同一用户的旧连接被顶掉并关闭。
func (s *RelayService) OnJoin(ctx context.Context, uid string, conn manager.Conn) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return
	}

	replaced := s.presence.Join(uid, conn)
	if replaced != nil {
		replaced.Close()
	}

	s.mirrorOnline(ctx, uid, true)
	s.BroadcastPresence(ctx)
}

// OnLeave 处理连接关闭：注销绑定并广播最新在线列表。
// 连接从未完成 join 或已被新连接顶掉时不广播。
func (s *RelayService) OnLeave(ctx context.Context, conn manager.Conn) {
	uid, ok := s.presence.Leave(conn)
	if !ok {
		return
	}

	s.mirrorOnline(ctx, uid, false)
	s.BroadcastPresence(ctx)
}

// OnHeartbeat 处理心跳帧：续期 Redis 在线集合并回 ack。
func (s *RelayService) OnHeartbeat(ctx context.Context, conn manager.Conn) {
	if s.redisClient != nil {
		if err := s.redisClient.Expire(ctx, rediskey.PresenceOnlineKey(), rediskey.PresenceTTL).Err(); err != nil {
			logger.Warn(ctx, "续期在线集合失败", logger.ErrorField("error", err))
		}
	}

	frame, err := s.MarshalEnvelope(TypeHeartbeatAck, nil)
	if err != nil {
		return
	}
	conn.Enqueue(frame)
}

// BroadcastPresence 向全部在线连接广播当前在线用户列表。
// 尽力而为：入队失败（连接慢或已关闭）直接丢弃该帧，不重试。
func (s *RelayService) BroadcastPresence(ctx context.Context) {
	online := s.presence.Online()
	frame, err := s.MarshalEnvelope(TypeOnlineUsers, online)
	if err != nil {
		logger.Error(ctx, "序列化在线列表失败", logger.ErrorField("error", err))
		return
	}

	for _, conn := range s.presence.Connections() {
		conn.Enqueue(frame)
	}
}

// RelayFriendRequest 实时转发好友申请通知。
// 接收方离线时静默丢弃：申请本身已由 HTTP 接口落库，上线后可通过列表接口拉取。
func (s *RelayService) RelayFriendRequest(ctx context.Context, data *FriendRequestData) {
	if data == nil || data.SenderUid == "" || data.ReceiverUid == "" {
		return
	}

	target := s.presence.Lookup(data.ReceiverUid)
	if target == nil {
		logger.Debug(ctx, "好友申请接收方不在线，跳过转发",
			logger.String("sender_uid", data.SenderUid),
			logger.String("receiver_uid", data.ReceiverUid),
		)
		return
	}

	frame, err := s.MarshalEnvelope(TypeNewFriendRequest, data)
	if err != nil {
		logger.Error(ctx, "序列化好友申请通知失败", logger.ErrorField("error", err))
		return
	}
	target.Enqueue(frame)
}

// RelayMessage 处理 send-message 帧。
// 约束：sender/receiver 非空且 text/image 至少一个非空，否则静默丢弃。
// 先落库后转发：无论接收方是否在线消息都持久化；
// 落库失败返回错误（handler 回 error 帧），落库成功后的投递失败只丢帧。
func (s *RelayService) RelayMessage(ctx context.Context, data *SendMessageData) error {
	if data == nil || strings.TrimSpace(data.SenderUid) == "" || strings.TrimSpace(data.ReceiverUid) == "" {
		return nil
	}
	if strings.TrimSpace(data.Text) == "" && strings.TrimSpace(data.Image) == "" {
		return nil
	}

	view, err := s.messageService.SendMessage(ctx, data.SenderUid, data.ReceiverUid, data.Text, data.Image)
	if err != nil {
		return err
	}

	s.PushMessage(ctx, view)
	return nil
}

// PushMessage 向接收方在线连接投递已落库的消息。
// 接收方离线时静默丢弃，消息上线后通过历史接口拉取。
func (s *RelayService) PushMessage(ctx context.Context, view *dto.MessageView) {
	if view == nil {
		return
	}

	target := s.presence.Lookup(view.ReceiverUid)
	if target == nil {
		return
	}

	frame, err := s.MarshalEnvelope(TypeReceiveMessage, view)
	if err != nil {
		logger.Error(ctx, "序列化消息通知失败", logger.ErrorField("error", err))
		return
	}
	target.Enqueue(frame)
}

// ParseEnvelope 解析客户端上行帧。
// 若 type 缺失或 JSON 不合法，会返回错误交由 handler 返回 error 帧。
func (s *RelayService) ParseEnvelope(raw []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	envelope.Type = strings.TrimSpace(envelope.Type)
	if envelope.Type == "" {
		return nil, errors.New("type is required")
	}
	return &envelope, nil
}

// MarshalEnvelope 组装并序列化下行帧。
// 约定：data=nil 时省略 data 字段，避免无意义空对象。
func (s *RelayService) MarshalEnvelope(msgType string, data any) ([]byte, error) {
	envelope := map[string]any{
		"type": msgType,
	}
	if data != nil {
		envelope["data"] = data
	}
	return json.Marshal(envelope)
}

// mirrorOnline 把在线状态镜像到 Redis 集合。
// 镜像仅用于跨实例观测，失败不影响本机在线表。
func (s *RelayService) mirrorOnline(ctx context.Context, uid string, online bool) {
	if s.redisClient == nil {
		return
	}

	key := rediskey.PresenceOnlineKey()
	pipe := s.redisClient.Pipeline()
	if online {
		pipe.SAdd(ctx, key, uid)
	} else {
		pipe.SRem(ctx, key, uid)
	}
	pipe.Expire(ctx, key, rediskey.PresenceTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "镜像在线状态失败",
			logger.String("uid", uid),
			logger.Bool("online", online),
			logger.ErrorField("error", err),
		)
	}
}

// md5Hex 返回字符串的 MD5 十六进制摘要。
// 用于与外部认证服务存储的 access_token 哈希值进行比较。
func md5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
