package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/repository"
	"ChatFlowServer/model"
	"ChatFlowServer/pkg/minio"
)

// messageServiceImpl 消息服务实现
type messageServiceImpl struct {
	messageRepo repository.IMessageRepository
	minioClient *minio.MinIOClient
}

// NewMessageService 创建消息服务实例
// minioClient 为 nil 时图片上传接口返回服务不可用。
func NewMessageService(messageRepo repository.IMessageRepository, minioClient *minio.MinIOClient) IMessageService {
	return &messageServiceImpl{messageRepo: messageRepo, minioClient: minioClient}
}

// SendMessage 落库一条消息并返回视图
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error) {
	senderUID = strings.TrimSpace(senderUID)
	receiverUID = strings.TrimSpace(receiverUID)
	if senderUID == "" || receiverUID == "" {
		return nil, NewBizError(consts.CodeParamError)
	}
	if strings.TrimSpace(text) == "" && strings.TrimSpace(image) == "" {
		return nil, NewBizError(consts.CodeMessageEmptyBody)
	}

	msg := &model.Message{
		SenderUid:   senderUID,
		ReceiverUid: receiverUID,
		Text:        text,
		Image:       image,
	}
	created, err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		return nil, err
	}

	return toMessageView(created), nil
}

// ListMessages 查询与 peer 的双向历史消息
func (s *messageServiceImpl) ListMessages(ctx context.Context, uid, peerUID string) ([]*dto.MessageView, error) {
	if uid == "" || strings.TrimSpace(peerUID) == "" {
		return nil, NewBizError(consts.CodeParamError)
	}

	messages, err := s.messageRepo.ListBetween(ctx, uid, peerUID, 0)
	if err != nil {
		return nil, err
	}

	views := make([]*dto.MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, toMessageView(msg))
	}
	return views, nil
}

// UploadImage 上传消息图片
func (s *messageServiceImpl) UploadImage(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error) {
	if s.minioClient == nil {
		return "", NewBizError(consts.CodeServiceUnavailable)
	}

	url, err := s.minioClient.UploadImage(ctx, reader, size, fileName, contentType)
	if err != nil {
		switch {
		case errors.Is(err, minio.ErrFileTooLarge):
			return "", NewBizError(consts.CodeImageTooLarge)
		case errors.Is(err, minio.ErrInvalidFileType):
			return "", NewBizError(consts.CodeImageTypeInvalid)
		default:
			return "", err
		}
	}
	return url, nil
}

// toMessageView 组装消息视图
func toMessageView(msg *model.Message) *dto.MessageView {
	return &dto.MessageView{
		Id:          strconv.FormatInt(msg.Id, 10),
		SenderUid:   msg.SenderUid,
		ReceiverUid: msg.ReceiverUid,
		Text:        msg.Text,
		Image:       msg.Image,
		CreatedAt:   msg.CreatedAt.UnixMilli(),
	}
}
