package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ChatFlowServer/internal/manager"
	"ChatFlowServer/internal/svc"
	"ChatFlowServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// WebSocket 协议层业务错误码（仅用于 ws 帧内的 error 消息，不是 HTTP 状态码）。
	wsMessageInvalidFormatCode = 10001
	wsMessageUnsupportedCode   = 10002
	wsMessageStoreFailureCode  = 30001
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 当前阶段默认放开来源校验，方便本地多端调试。
	// 生产环境建议按域名白名单收紧校验策略。
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler 负责处理 /ws 接入请求。
// 职责边界：
// - 处理 Gin/HTTP 层参数、升级与错误响应；
// - 调用 svc 完成鉴权、帧解析与转发；
// - 调用 manager 维护连接生命周期。
type WSHandler struct {
	relaySvc *svc.RelayService
}

// NewWSHandler 创建 WebSocket 入口处理器。
func NewWSHandler(relaySvc *svc.RelayService) *WSHandler {
	return &WSHandler{relaySvc: relaySvc}
}

// ServeWS 处理 WebSocket 握手与接入。
// 执行流程：
// 1. 从 query 中读取 token，并获取 client_ip。
// 2. 调用 relaySvc.Authenticate 做鉴权。
// 3. 构建连接级 context（注入 trace/user/ip）。
// 4. 完成协议升级并进入连接处理主循环。
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	clientIP := c.ClientIP()

	session, err := h.relaySvc.Authenticate(c.Request.Context(), token, clientIP)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	connCtx := context.Background()
	if traceID := c.GetString("trace_id"); traceID != "" {
		connCtx = context.WithValue(connCtx, "trace_id", traceID) //nolint:staticcheck
	}
	connCtx = context.WithValue(connCtx, "user_uid", session.UserUID) //nolint:staticcheck

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败",
			logger.ErrorField("error", err),
		)
		return
	}

	h.handleConnection(connCtx, conn, session)
}

// handleConnection 承载单个连接的完整生命周期。
// 关键语义：
// - 绑定由 join 帧触发，同一用户重复上线时新连接顶掉旧连接；
// - 断开清理只在 onClose 回调执行一次（Run 内部保证），
//   任何退出路径（正常关闭、网络错误、ctx 取消）都等价于优雅下线。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, session *svc.Session) {
	client := manager.NewClient(conn)

	logger.Info(ctx, "WebSocket 连接已建立",
		logger.String("user_uid", session.UserUID),
		logger.String("client_ip", session.ClientIP),
		logger.Int("online_count", h.relaySvc.Presence().Count()),
	)

	client.Run(ctx, func(raw []byte) {
		h.handleMessage(ctx, client, session, raw)
	}, func() {
		h.relaySvc.OnLeave(ctx, client)
		logger.Info(ctx, "WebSocket 连接已断开",
			logger.String("user_uid", session.UserUID),
			logger.Int("online_count", h.relaySvc.Presence().Count()),
		)
	})
}

// handleMessage 处理客户端上行帧。
// 身份约束：上行帧中的身份字段一律以握手鉴权得到的 session 为准，
// 载荷里自带的 uid/senderUid 不可信（防止绑定他人身份或冒充发送方）。
// 支持的帧类型：
// - join: 以会话身份绑定用户并广播在线列表；
// - friend-request: 实时转发好友申请通知（持久化走 HTTP 接口）；
// - send-message: 先落库后转发；
// - heartbeat: 返回 heartbeat_ack。
func (h *WSHandler) handleMessage(ctx context.Context, conn manager.Conn, session *svc.Session, raw []byte) {
	envelope, err := h.relaySvc.ParseEnvelope(raw)
	if err != nil {
		h.sendErrorFrame(ctx, conn, wsMessageInvalidFormatCode, "invalid frame format")
		return
	}

	switch envelope.Type {
	case svc.TypeJoin:
		var data svc.JoinData
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &data); err != nil {
				h.sendErrorFrame(ctx, conn, wsMessageInvalidFormatCode, "invalid join data")
				return
			}
		}
		if data.Uid != "" && data.Uid != session.UserUID {
			logger.Warn(ctx, "join 帧 uid 与会话身份不一致，以会话身份绑定",
				logger.String("claimed_uid", data.Uid),
				logger.String("session_uid", session.UserUID),
			)
		}
		h.relaySvc.OnJoin(ctx, session.UserUID, conn)

	case svc.TypeFriendRequest:
		var data svc.FriendRequestData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.sendErrorFrame(ctx, conn, wsMessageInvalidFormatCode, "invalid friend-request data")
			return
		}
		data.SenderUid = session.UserUID
		h.relaySvc.RelayFriendRequest(ctx, &data)

	case svc.TypeSendMessage:
		var data svc.SendMessageData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.sendErrorFrame(ctx, conn, wsMessageInvalidFormatCode, "invalid send-message data")
			return
		}
		data.SenderUid = session.UserUID
		if err := h.relaySvc.RelayMessage(ctx, &data); err != nil {
			logger.Error(ctx, "消息落库失败",
				logger.String("sender_uid", data.SenderUid),
				logger.String("receiver_uid", data.ReceiverUid),
				logger.ErrorField("error", err),
			)
			h.sendErrorFrame(ctx, conn, wsMessageStoreFailureCode, "message store failed")
		}

	case svc.TypeHeartbeat:
		h.relaySvc.OnHeartbeat(ctx, conn)

	default:
		h.sendErrorFrame(ctx, conn, wsMessageUnsupportedCode, "unsupported message type")
	}
}

// sendErrorFrame 发送 ws 协议层错误帧。
// 发送失败通常表示连接不可写，此时主动关闭连接避免资源泄漏。
func (h *WSHandler) sendErrorFrame(ctx context.Context, conn manager.Conn, code int, message string) {
	payload, err := h.relaySvc.MarshalEnvelope(svc.TypeError, svc.ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		logger.Warn(ctx, "错误帧序列化失败",
			logger.Int("code", code),
			logger.ErrorField("error", err),
		)
		return
	}
	if !conn.Enqueue(payload) {
		conn.Close()
	}
}

// writeAuthError 将鉴权错误映射为 HTTP 握手阶段错误响应。
// 说明：握手前还未升级为 WebSocket，因此用 HTTP JSON 返回更直观。
func (h *WSHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, svc.ErrTokenRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
	case errors.Is(err, svc.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "token invalid or expired",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal error",
		})
	}
}
