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

// FriendHandler 好友关系处理器
// 申请落库走 relationService，在线实时通知走 relaySvc（接收方离线则静默跳过）。
type FriendHandler struct {
	relationService service.IRelationService
	relaySvc        *svc.RelayService
}

// NewFriendHandler 创建好友关系处理器
func NewFriendHandler(relationService service.IRelationService, relaySvc *svc.RelayService) *FriendHandler {
	return &FriendHandler{
		relationService: relationService,
		relaySvc:        relaySvc,
	}
}

// SendRequest 发送好友申请接口
// @Router /api/v1/auth/friends/requests [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	senderUID, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.SendRequest(ctx, senderUID, req.ReceiverUid); err != nil {
		failWithError(c, ctx, err, "发送好友申请服务内部错误")
		return
	}

	// 落库成功后尽力而为实时通知，接收方离线由列表接口兜底
	h.relaySvc.RelayFriendRequest(ctx, &svc.FriendRequestData{
		SenderUid:   senderUID,
		ReceiverUid: req.ReceiverUid,
	})

	result.Success(c, nil)
}

// AcceptRequest 同意好友申请接口
// @Router /api/v1/auth/friends/requests/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	receiverUID, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.AcceptRequest(ctx, receiverUID, req.SenderUid); err != nil {
		failWithError(c, ctx, err, "同意好友申请服务内部错误")
		return
	}

	result.Success(c, nil)
}

// RejectRequest 拒绝好友申请接口
// @Router /api/v1/auth/friends/requests/reject [post]
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	receiverUID, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.RejectRequest(ctx, receiverUID, req.SenderUid); err != nil {
		failWithError(c, ctx, err, "拒绝好友申请服务内部错误")
		return
	}

	result.Success(c, nil)
}

// CancelRequest 撤回好友申请接口
// @Router /api/v1/auth/friends/requests [delete]
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	senderUID, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.CancelFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.CancelRequest(ctx, senderUID, req.ReceiverUid); err != nil {
		failWithError(c, ctx, err, "撤回好友申请服务内部错误")
		return
	}

	result.Success(c, nil)
}

// ListReceivedRequests 收到的待处理申请列表接口
// @Router /api/v1/auth/friends/requests/received [get]
func (h *FriendHandler) ListReceivedRequests(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	views, err := h.relationService.ListReceivedRequests(ctx, uid)
	if err != nil {
		failWithError(c, ctx, err, "查询收到的好友申请服务内部错误")
		return
	}

	result.Success(c, views)
}

// ListSentRequests 发出的待处理申请列表接口
// @Router /api/v1/auth/friends/requests/sent [get]
func (h *FriendHandler) ListSentRequests(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	views, err := h.relationService.ListSentRequests(ctx, uid)
	if err != nil {
		failWithError(c, ctx, err, "查询发出的好友申请服务内部错误")
		return
	}

	result.Success(c, views)
}

// CountReceivedRequests 收到的待处理申请数量接口
// @Router /api/v1/auth/friends/requests/count [get]
func (h *FriendHandler) CountReceivedRequests(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	count, err := h.relationService.CountReceivedRequests(ctx, uid)
	if err != nil {
		failWithError(c, ctx, err, "查询好友申请数量服务内部错误")
		return
	}

	result.Success(c, &dto.RequestCountView{Count: count})
}

// ListCandidates 候选人推荐接口
// @Router /api/v1/auth/friends/candidates [get]
func (h *FriendHandler) ListCandidates(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	summaries, err := h.relationService.ListCandidates(ctx, uid)
	if err != nil {
		failWithError(c, ctx, err, "查询候选人服务内部错误")
		return
	}

	result.Success(c, summaries)
}

// ListFriends 好友列表接口
// @Router /api/v1/auth/friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	summaries, err := h.relationService.ListFriends(ctx, uid)
	if err != nil {
		failWithError(c, ctx, err, "查询好友列表服务内部错误")
		return
	}

	result.Success(c, summaries)
}

// RemoveFriend 解除好友关系接口
// @Router /api/v1/auth/friends [delete]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	uid, ok := middleware.GetUserUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.RemoveFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.RemoveFriend(ctx, uid, req.FriendUid); err != nil {
		failWithError(c, ctx, err, "解除好友关系服务内部错误")
		return
	}

	result.Success(c, nil)
}
