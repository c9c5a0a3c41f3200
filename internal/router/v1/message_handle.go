package v1

import (
	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/middleware"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/internal/svc"
	"ChatFlowServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
// HTTP 入口负责落库与历史查询；落库成功后借 relaySvc 做在线投递。
type MessageHandler struct {
	messageService service.IMessageService
	relaySvc       *svc.RelayService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messageService service.IMessageService, relaySvc *svc.RelayService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		relaySvc:       relaySvc,
	}
}

// PostMessage 发送消息接口（HTTP 通道，与 ws send-message 语义一致）
// @Router /api/v1/auth/messages [post]
func (h *MessageHandler) PostMessage(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	senderUID, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	view, err := h.messageService.SendMessage(ctx, senderUID, req.ReceiverUid, req.Text, req.Image)
	if err != nil {
		failWithError(c, ctx, err, "消息落库服务内部错误")
		return
	}

	// 先落库后投递，接收方离线则静默丢弃
	h.relaySvc.PushMessage(ctx, view)

	result.Success(c, view)
}

// ListMessages 查询双向历史消息接口
// @Router /api/v1/auth/messages?peer_uid=xxx [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	peerUID := c.Query("peer_uid")
	if peerUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	views, err := h.messageService.ListMessages(ctx, uid, peerUID)
	if err != nil {
		failWithError(c, ctx, err, "查询历史消息服务内部错误")
		return
	}

	result.Success(c, views)
}

// UploadImage 上传消息图片接口
// @Router /api/v1/auth/messages/image [post]
func (h *MessageHandler) UploadImage(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	defer file.Close()

	url, err := h.messageService.UploadImage(ctx, file, fileHeader.Size,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		failWithError(c, ctx, err, "上传图片服务内部错误")
		return
	}

	result.Success(c, &dto.UploadImageView{Url: url})
}
