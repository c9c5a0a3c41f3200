package service

import (
	"context"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/model"
)

// relationServiceImpl 好友关系服务实现
type relationServiceImpl struct {
	userRepo    repository.IUserRepository
	requestRepo repository.IRequestRepository
	friendRepo  repository.IFriendRepository
}

// NewRelationService 创建好友关系服务实例
func NewRelationService(
	userRepo repository.IUserRepository,
	requestRepo repository.IRequestRepository,
	friendRepo repository.IFriendRepository,
) IRelationService {
	return &relationServiceImpl{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		friendRepo:  friendRepo,
	}
}

// SendRequest 发送好友申请
func (s *relationServiceImpl) SendRequest(ctx context.Context, senderUID, receiverUID string) error {
	if senderUID == "" || receiverUID == "" {
		return NewBizError(consts.CodeParamError)
	}
	if senderUID == receiverUID {
		return NewBizError(consts.CodeRequestSelf)
	}

	// 已经是好友直接拒绝，避免产生悬空申请
	isFriend, err := s.friendRepo.IsFriend(ctx, senderUID, receiverUID)
	if err != nil {
		return err
	}
	if isFriend {
		return NewBizError(consts.CodeAlreadyFriend)
	}

	// 待处理缓存先挡掉重复申请，并发竞争由唯一索引兜底
	exists, err := s.requestRepo.ExistsPending(ctx, senderUID, receiverUID)
	if err != nil {
		return err
	}
	if exists {
		return NewBizError(consts.CodeFriendRequestSent)
	}

	req := &model.FriendRequest{
		SenderUid:   senderUID,
		ReceiverUid: receiverUID,
	}
	// 同向唯一索引兜底重复申请；反方向不受影响
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		return wrapRepoError(err, 0, consts.CodeFriendRequestSent)
	}
	return nil
}

// AcceptRequest 同意好友申请
// 行为：删除双向待处理申请 + 成对建立好友关系。
// 即使没有待处理申请也放行：重复同意、双方同时同意都收敛到同一份好友关系。
func (s *relationServiceImpl) AcceptRequest(ctx context.Context, receiverUID, senderUID string) error {
	if receiverUID == "" || senderUID == "" {
		return NewBizError(consts.CodeParamError)
	}
	if receiverUID == senderUID {
		return NewBizError(consts.CodeRequestSelf)
	}

	if _, err := s.requestRepo.DeleteBothDirections(ctx, senderUID, receiverUID); err != nil {
		return err
	}

	return s.friendRepo.CreatePair(ctx, senderUID, receiverUID)
}

// RejectRequest 拒绝好友申请
// 只删除对方发给自己的那一条；申请不存在时幂等成功。
func (s *relationServiceImpl) RejectRequest(ctx context.Context, receiverUID, senderUID string) error {
	if receiverUID == "" || senderUID == "" {
		return NewBizError(consts.CodeParamError)
	}
	_, err := s.requestRepo.DeletePending(ctx, senderUID, receiverUID)
	return err
}

// CancelRequest 撤回自己发出的申请，申请不存在时幂等成功
func (s *relationServiceImpl) CancelRequest(ctx context.Context, senderUID, receiverUID string) error {
	if senderUID == "" || receiverUID == "" {
		return NewBizError(consts.CodeParamError)
	}
	_, err := s.requestRepo.DeletePending(ctx, senderUID, receiverUID)
	return err
}

// RemoveFriend 解除好友关系，关系不存在时幂等成功
func (s *relationServiceImpl) RemoveFriend(ctx context.Context, uid, friendUID string) error {
	if uid == "" || friendUID == "" {
		return NewBizError(consts.CodeParamError)
	}
	_, err := s.friendRepo.DeletePair(ctx, uid, friendUID)
	return err
}

// ListCandidates 候选人推荐
// 三次查询 + 内存集合减法：全量用户 - 自己 - 好友 - 双向待处理申请对象。
func (s *relationServiceImpl) ListCandidates(ctx context.Context, uid string) ([]*dto.UserSummary, error) {
	allUIDs, err := s.userRepo.ListAllUIDs(ctx)
	if err != nil {
		return nil, err
	}

	friendUIDs, err := s.friendRepo.ListFriendUIDs(ctx, uid)
	if err != nil {
		return nil, err
	}

	// 候选人计算只需要 uid 集合，走无副作用的单列查询，
	// 不能借道 ListReceived（它会重建待处理缓存）
	pendingInUIDs, err := s.requestRepo.ListReceivedSenderUIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	sent, err := s.requestRepo.ListSent(ctx, uid)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(friendUIDs)+len(pendingInUIDs)+len(sent)+1)
	excluded[uid] = struct{}{}
	for _, f := range friendUIDs {
		excluded[f] = struct{}{}
	}
	for _, u := range pendingInUIDs {
		excluded[u] = struct{}{}
	}
	for _, req := range sent {
		excluded[req.ReceiverUid] = struct{}{}
	}

	candidateUIDs := make([]string, 0, len(allUIDs))
	for _, u := range allUIDs {
		if _, ok := excluded[u]; !ok {
			candidateUIDs = append(candidateUIDs, u)
		}
	}

	return s.loadSummaries(ctx, candidateUIDs)
}

// ListFriends 好友列表
func (s *relationServiceImpl) ListFriends(ctx context.Context, uid string) ([]*dto.UserSummary, error) {
	friendUIDs, err := s.friendRepo.ListFriendUIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.loadSummaries(ctx, friendUIDs)
}

// ListReceivedRequests 收到的待处理申请
func (s *relationServiceImpl) ListReceivedRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error) {
	requests, err := s.requestRepo.ListReceived(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(ctx, requests, true)
}

// ListSentRequests 发出的待处理申请
func (s *relationServiceImpl) ListSentRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error) {
	requests, err := s.requestRepo.ListSent(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(ctx, requests, false)
}

// CountReceivedRequests 收到的待处理申请数量
func (s *relationServiceImpl) CountReceivedRequests(ctx context.Context, uid string) (int64, error) {
	return s.requestRepo.CountReceived(ctx, uid)
}

// IsFriend 判断是否好友
func (s *relationServiceImpl) IsFriend(ctx context.Context, uidA, uidB string) (bool, error) {
	return s.friendRepo.IsFriend(ctx, uidA, uidB)
}

// loadSummaries 批量加载用户摘要
func (s *relationServiceImpl) loadSummaries(ctx context.Context, uids []string) ([]*dto.UserSummary, error) {
	if len(uids) == 0 {
		return []*dto.UserSummary{}, nil
	}

	users, err := s.userRepo.BatchGetByUIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, &dto.UserSummary{
			Uid:   user.Uid,
			Name:  user.Name,
			Email: user.Email,
			Image: user.Image,
		})
	}
	return summaries, nil
}

// attachProfiles 为申请列表补全对端档案
// peerIsSender: true 表示对端是发送方（收到的申请），false 表示接收方（发出的申请）。
func (s *relationServiceImpl) attachProfiles(ctx context.Context, requests []*model.FriendRequest, peerIsSender bool) ([]*dto.FriendRequestView, error) {
	if len(requests) == 0 {
		return []*dto.FriendRequestView{}, nil
	}

	peerUIDs := make([]string, 0, len(requests))
	for _, req := range requests {
		if peerIsSender {
			peerUIDs = append(peerUIDs, req.SenderUid)
		} else {
			peerUIDs = append(peerUIDs, req.ReceiverUid)
		}
	}

	users, err := s.userRepo.BatchGetByUIDs(ctx, peerUIDs)
	if err != nil {
		return nil, err
	}
	userMap := make(map[string]*model.User, len(users))
	for _, user := range users {
		userMap[user.Uid] = user
	}

	views := make([]*dto.FriendRequestView, 0, len(requests))
	for _, req := range requests {
		peerUID := req.SenderUid
		if !peerIsSender {
			peerUID = req.ReceiverUid
		}

		view := &dto.FriendRequestView{
			SenderUid:   req.SenderUid,
			ReceiverUid: req.ReceiverUid,
			CreatedAt:   req.CreatedAt.UnixMilli(),
		}
		if user, ok := userMap[peerUID]; ok {
			view.Name = user.Name
			view.Email = user.Email
			view.Image = user.Image
		}
		views = append(views, view)
	}
	return views, nil
}
