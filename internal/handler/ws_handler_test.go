package handler

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/manager"
	"ChatFlowServer/internal/svc"
	"ChatFlowServer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var wsHandlerLoggerOnce sync.Once

func initWSHandlerTest() {
	wsHandlerLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// fakeWSClientConn 捕获下行帧的连接替身
type fakeWSClientConn struct {
	mu     sync.Mutex
	closed bool
	frames [][]byte
}

func (c *fakeWSClientConn) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.frames = append(c.frames, msg)
	return true
}

func (c *fakeWSClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeWSClientConn) lastEnvelope(t *testing.T) *svc.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.frames)
	var envelope svc.Envelope
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], &envelope))
	return &envelope
}

type fakeMessageSvcForWS struct {
	sendFn func(ctx context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error)
}

func (f *fakeMessageSvcForWS) SendMessage(ctx context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error) {
	if f.sendFn == nil {
		return &dto.MessageView{Id: "1", SenderUid: senderUID, ReceiverUid: receiverUID, Text: text, Image: image}, nil
	}
	return f.sendFn(ctx, senderUID, receiverUID, text, image)
}

func (f *fakeMessageSvcForWS) ListMessages(_ context.Context, _, _ string) ([]*dto.MessageView, error) {
	return []*dto.MessageView{}, nil
}

func (f *fakeMessageSvcForWS) UploadImage(_ context.Context, _ io.Reader, _ int64, _, _ string) (string, error) {
	return "", nil
}

func newWSHandlerForTest(msgSvc *fakeMessageSvcForWS) (*WSHandler, *manager.PresenceManager) {
	initWSHandlerTest()
	if msgSvc == nil {
		msgSvc = &fakeMessageSvcForWS{}
	}
	presence := manager.NewPresenceManager()
	return NewWSHandler(svc.NewRelayService(presence, msgSvc, nil)), presence
}

func TestWSHandlerJoinBindsSessionIdentity(t *testing.T) {
	h, presence := newWSHandlerForTest(nil)
	ctx := context.Background()
	session := &svc.Session{UserUID: "ua"}
	conn := &fakeWSClientConn{}

	// 载荷里冒充他人 uid，绑定仍落在会话身份上
	h.handleMessage(ctx, conn, session, []byte(`{"type":"join","data":{"uid":"ub"}}`))

	assert.NotNil(t, presence.Lookup("ua"))
	assert.Nil(t, presence.Lookup("ub"))

	envelope := conn.lastEnvelope(t)
	require.Equal(t, svc.TypeOnlineUsers, envelope.Type)
	var online []string
	require.NoError(t, json.Unmarshal(envelope.Data, &online))
	assert.Equal(t, []string{"ua"}, online)
}

func TestWSHandlerFriendRequestUsesSessionSender(t *testing.T) {
	h, presence := newWSHandlerForTest(nil)
	ctx := context.Background()
	session := &svc.Session{UserUID: "ua"}

	receiverConn := &fakeWSClientConn{}
	presence.Join("ub", receiverConn)

	raw := []byte(`{"type":"friend-request","data":{"senderUid":"mallory","receiverUid":"ub"}}`)
	h.handleMessage(ctx, &fakeWSClientConn{}, session, raw)

	envelope := receiverConn.lastEnvelope(t)
	require.Equal(t, svc.TypeNewFriendRequest, envelope.Type)
	var data svc.FriendRequestData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "ua", data.SenderUid)
}

func TestWSHandlerSendMessageUsesSessionSender(t *testing.T) {
	var storedSender string
	msgSvc := &fakeMessageSvcForWS{
		sendFn: func(_ context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error) {
			storedSender = senderUID
			return &dto.MessageView{Id: "1", SenderUid: senderUID, ReceiverUid: receiverUID, Text: text}, nil
		},
	}
	h, _ := newWSHandlerForTest(msgSvc)
	ctx := context.Background()
	session := &svc.Session{UserUID: "ua"}

	raw := []byte(`{"type":"send-message","data":{"senderUid":"mallory","receiverUid":"ub","text":"hi"}}`)
	h.handleMessage(ctx, &fakeWSClientConn{}, session, raw)

	assert.Equal(t, "ua", storedSender)
}

func TestWSHandlerUnsupportedTypeReturnsErrorFrame(t *testing.T) {
	h, _ := newWSHandlerForTest(nil)
	conn := &fakeWSClientConn{}

	h.handleMessage(context.Background(), conn, &svc.Session{UserUID: "ua"}, []byte(`{"type":"unknown"}`))

	envelope := conn.lastEnvelope(t)
	require.Equal(t, svc.TypeError, envelope.Type)
	var data svc.ErrorData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, wsMessageUnsupportedCode, data.Code)
}
