package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/manager"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/internal/svc"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelationSvcForHandler struct {
	sendRequestFn    func(context.Context, string, string) error
	acceptRequestFn  func(context.Context, string, string) error
	rejectRequestFn  func(context.Context, string, string) error
	cancelRequestFn  func(context.Context, string, string) error
	removeFriendFn   func(context.Context, string, string) error
	listCandidatesFn func(context.Context, string) ([]*dto.UserSummary, error)
	listFriendsFn    func(context.Context, string) ([]*dto.UserSummary, error)
	listReceivedFn   func(context.Context, string) ([]*dto.FriendRequestView, error)
	listSentFn       func(context.Context, string) ([]*dto.FriendRequestView, error)
	countReceivedFn  func(context.Context, string) (int64, error)
	isFriendFn       func(context.Context, string, string) (bool, error)
}

func (f *fakeRelationSvcForHandler) SendRequest(ctx context.Context, senderUID, receiverUID string) error {
	if f.sendRequestFn == nil {
		return nil
	}
	return f.sendRequestFn(ctx, senderUID, receiverUID)
}

func (f *fakeRelationSvcForHandler) AcceptRequest(ctx context.Context, receiverUID, senderUID string) error {
	if f.acceptRequestFn == nil {
		return nil
	}
	return f.acceptRequestFn(ctx, receiverUID, senderUID)
}

func (f *fakeRelationSvcForHandler) RejectRequest(ctx context.Context, receiverUID, senderUID string) error {
	if f.rejectRequestFn == nil {
		return nil
	}
	return f.rejectRequestFn(ctx, receiverUID, senderUID)
}

func (f *fakeRelationSvcForHandler) CancelRequest(ctx context.Context, senderUID, receiverUID string) error {
	if f.cancelRequestFn == nil {
		return nil
	}
	return f.cancelRequestFn(ctx, senderUID, receiverUID)
}

func (f *fakeRelationSvcForHandler) RemoveFriend(ctx context.Context, uid, friendUID string) error {
	if f.removeFriendFn == nil {
		return nil
	}
	return f.removeFriendFn(ctx, uid, friendUID)
}

func (f *fakeRelationSvcForHandler) ListCandidates(ctx context.Context, uid string) ([]*dto.UserSummary, error) {
	if f.listCandidatesFn == nil {
		return []*dto.UserSummary{}, nil
	}
	return f.listCandidatesFn(ctx, uid)
}

func (f *fakeRelationSvcForHandler) ListFriends(ctx context.Context, uid string) ([]*dto.UserSummary, error) {
	if f.listFriendsFn == nil {
		return []*dto.UserSummary{}, nil
	}
	return f.listFriendsFn(ctx, uid)
}

func (f *fakeRelationSvcForHandler) ListReceivedRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error) {
	if f.listReceivedFn == nil {
		return []*dto.FriendRequestView{}, nil
	}
	return f.listReceivedFn(ctx, uid)
}

func (f *fakeRelationSvcForHandler) ListSentRequests(ctx context.Context, uid string) ([]*dto.FriendRequestView, error) {
	if f.listSentFn == nil {
		return []*dto.FriendRequestView{}, nil
	}
	return f.listSentFn(ctx, uid)
}

func (f *fakeRelationSvcForHandler) CountReceivedRequests(ctx context.Context, uid string) (int64, error) {
	if f.countReceivedFn == nil {
		return 0, nil
	}
	return f.countReceivedFn(ctx, uid)
}

func (f *fakeRelationSvcForHandler) IsFriend(ctx context.Context, uidA, uidB string) (bool, error) {
	if f.isFriendFn == nil {
		return false, nil
	}
	return f.isFriendFn(ctx, uidA, uidB)
}

var _ service.IRelationService = (*fakeRelationSvcForHandler)(nil)

type fakeMessageSvcForHandler struct {
	sendFn   func(context.Context, string, string, string, string) (*dto.MessageView, error)
	listFn   func(context.Context, string, string) ([]*dto.MessageView, error)
	uploadFn func(context.Context, io.Reader, int64, string, string) (string, error)
}

func (f *fakeMessageSvcForHandler) SendMessage(ctx context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error) {
	if f.sendFn == nil {
		return &dto.MessageView{Id: "1", SenderUid: senderUID, ReceiverUid: receiverUID, Text: text, Image: image}, nil
	}
	return f.sendFn(ctx, senderUID, receiverUID, text, image)
}

func (f *fakeMessageSvcForHandler) ListMessages(ctx context.Context, uid, peerUID string) ([]*dto.MessageView, error) {
	if f.listFn == nil {
		return []*dto.MessageView{}, nil
	}
	return f.listFn(ctx, uid, peerUID)
}

func (f *fakeMessageSvcForHandler) UploadImage(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error) {
	if f.uploadFn == nil {
		return "http://img/x.png", nil
	}
	return f.uploadFn(ctx, reader, size, fileName, contentType)
}

var _ service.IMessageService = (*fakeMessageSvcForHandler)(nil)

// fakeWSConn 捕获经在线表投递的下行帧
type fakeWSConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *fakeWSConn) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, msg)
	return true
}

func (c *fakeWSConn) Close() {}

func (c *fakeWSConn) lastEnvelope(t *testing.T) *svc.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.frames)
	var envelope svc.Envelope
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], &envelope))
	return &envelope
}

func newRelayForHandlerTest() (*svc.RelayService, *manager.PresenceManager) {
	presence := manager.NewPresenceManager()
	return svc.NewRelayService(presence, &fakeMessageSvcForHandler{}, nil), presence
}

func newAuthedContext(t *testing.T, w *httptest.ResponseRecorder, method, target, body, uid string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request = newJSONRequest(t, method, target, body)
	c.Set("user_uid", uid)
	return c
}

func TestFriendHandlerSendRequest(t *testing.T) {
	initHandlerTest()

	t.Run("success_relays_to_online_receiver", func(t *testing.T) {
		relay, presence := newRelayForHandlerTest()
		receiverConn := &fakeWSConn{}
		presence.Join("ub", receiverConn)

		var sent [2]string
		relationSvc := &fakeRelationSvcForHandler{
			sendRequestFn: func(_ context.Context, senderUID, receiverUID string) error {
				sent = [2]string{senderUID, receiverUID}
				return nil
			},
		}
		h := NewFriendHandler(relationSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/friends/requests", `{"receiverUid":"ub"}`, "ua")

		h.SendRequest(c)

		assert.Equal(t, consts.CodeSuccess, decodeHandlerBody(t, w).Code)
		assert.Equal(t, [2]string{"ua", "ub"}, sent)

		envelope := receiverConn.lastEnvelope(t)
		require.Equal(t, svc.TypeNewFriendRequest, envelope.Type)
		var data svc.FriendRequestData
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		assert.Equal(t, "ua", data.SenderUid)
	})

	t.Run("receiver_offline_still_succeeds", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		h := NewFriendHandler(&fakeRelationSvcForHandler{}, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/friends/requests", `{"receiverUid":"offline"}`, "ua")

		h.SendRequest(c)

		assert.Equal(t, consts.CodeSuccess, decodeHandlerBody(t, w).Code)
	})

	t.Run("duplicate_request", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		relationSvc := &fakeRelationSvcForHandler{
			sendRequestFn: func(_ context.Context, _, _ string) error {
				return service.NewBizError(consts.CodeFriendRequestSent)
			},
		}
		h := NewFriendHandler(relationSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/friends/requests", `{"receiverUid":"ub"}`, "ua")

		h.SendRequest(c)

		assert.Equal(t, consts.CodeFriendRequestSent, decodeHandlerBody(t, w).Code)
	})

	t.Run("unauthorized_without_uid", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		h := NewFriendHandler(&fakeRelationSvcForHandler{}, relay)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = newJSONRequest(t, http.MethodPost, "/api/v1/auth/friends/requests", `{"receiverUid":"ub"}`)

		h.SendRequest(c)

		assert.Equal(t, consts.CodeUnauthorized, decodeHandlerBody(t, w).Code)
	})
}

func TestFriendHandlerAcceptRequest(t *testing.T) {
	initHandlerTest()

	var accepted [2]string
	relationSvc := &fakeRelationSvcForHandler{
		acceptRequestFn: func(_ context.Context, receiverUID, senderUID string) error {
			accepted = [2]string{receiverUID, senderUID}
			return nil
		},
	}
	relay, _ := newRelayForHandlerTest()
	h := NewFriendHandler(relationSvc, relay)

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/friends/requests/accept", `{"senderUid":"ua"}`, "ub")

	h.AcceptRequest(c)

	assert.Equal(t, consts.CodeSuccess, decodeHandlerBody(t, w).Code)
	assert.Equal(t, [2]string{"ub", "ua"}, accepted)
}

func TestFriendHandlerCountReceived(t *testing.T) {
	initHandlerTest()

	relationSvc := &fakeRelationSvcForHandler{
		countReceivedFn: func(_ context.Context, uid string) (int64, error) {
			assert.Equal(t, "ua", uid)
			return 5, nil
		},
	}
	relay, _ := newRelayForHandlerTest()
	h := NewFriendHandler(relationSvc, relay)

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, http.MethodGet, "/api/v1/auth/friends/requests/count", "", "ua")

	h.CountReceivedRequests(c)

	body := decodeHandlerBody(t, w)
	assert.Equal(t, consts.CodeSuccess, body.Code)

	var view dto.RequestCountView
	require.NoError(t, json.Unmarshal(body.Data, &view))
	assert.Equal(t, int64(5), view.Count)
}

func TestFriendHandlerRemoveFriend(t *testing.T) {
	initHandlerTest()

	t.Run("missing_friend_uid", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		h := NewFriendHandler(&fakeRelationSvcForHandler{}, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodDelete, "/api/v1/auth/friends", `{}`, "ua")

		h.RemoveFriend(c)

		assert.Equal(t, consts.CodeParamError, decodeHandlerBody(t, w).Code)
	})

	t.Run("success", func(t *testing.T) {
		var removed [2]string
		relationSvc := &fakeRelationSvcForHandler{
			removeFriendFn: func(_ context.Context, uid, friendUID string) error {
				removed = [2]string{uid, friendUID}
				return nil
			},
		}
		relay, _ := newRelayForHandlerTest()
		h := NewFriendHandler(relationSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodDelete, "/api/v1/auth/friends", `{"friendUid":"ub"}`, "ua")

		h.RemoveFriend(c)

		assert.Equal(t, consts.CodeSuccess, decodeHandlerBody(t, w).Code)
		assert.Equal(t, [2]string{"ua", "ub"}, removed)
	})
}
