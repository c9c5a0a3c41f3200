package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/dto"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/internal/svc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHandlerPostMessage(t *testing.T) {
	initHandlerTest()

	t.Run("success_pushes_to_online_receiver", func(t *testing.T) {
		relay, presence := newRelayForHandlerTest()
		receiverConn := &fakeWSConn{}
		presence.Join("ub", receiverConn)

		messageSvc := &fakeMessageSvcForHandler{
			sendFn: func(_ context.Context, senderUID, receiverUID, text, image string) (*dto.MessageView, error) {
				return &dto.MessageView{Id: "42", SenderUid: senderUID, ReceiverUid: receiverUID, Text: text}, nil
			},
		}
		h := NewMessageHandler(messageSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/messages", `{"receiverUid":"ub","text":"hello"}`, "ua")

		h.PostMessage(c)

		body := decodeHandlerBody(t, w)
		assert.Equal(t, consts.CodeSuccess, body.Code)

		envelope := receiverConn.lastEnvelope(t)
		require.Equal(t, svc.TypeReceiveMessage, envelope.Type)
		var view dto.MessageView
		require.NoError(t, json.Unmarshal(envelope.Data, &view))
		assert.Equal(t, "42", view.Id)
		assert.Equal(t, "hello", view.Text)
	})

	t.Run("empty_body_rejected", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		messageSvc := &fakeMessageSvcForHandler{
			sendFn: func(_ context.Context, _, _, _, _ string) (*dto.MessageView, error) {
				return nil, service.NewBizError(consts.CodeMessageEmptyBody)
			},
		}
		h := NewMessageHandler(messageSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/messages", `{"receiverUid":"ub"}`, "ua")

		h.PostMessage(c)

		assert.Equal(t, consts.CodeMessageEmptyBody, decodeHandlerBody(t, w).Code)
	})

	t.Run("store_failure_internal_error", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		messageSvc := &fakeMessageSvcForHandler{
			sendFn: func(_ context.Context, _, _, _, _ string) (*dto.MessageView, error) {
				return nil, errors.New("db down")
			},
		}
		h := NewMessageHandler(messageSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodPost, "/api/v1/auth/messages", `{"receiverUid":"ub","text":"x"}`, "ua")

		h.PostMessage(c)

		assert.Equal(t, consts.CodeInternalError, decodeHandlerBody(t, w).Code)
	})
}

func TestMessageHandlerListMessages(t *testing.T) {
	initHandlerTest()

	t.Run("success", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		messageSvc := &fakeMessageSvcForHandler{
			listFn: func(_ context.Context, uid, peerUID string) ([]*dto.MessageView, error) {
				assert.Equal(t, "ua", uid)
				assert.Equal(t, "ub", peerUID)
				return []*dto.MessageView{{Id: "1", SenderUid: "ua", ReceiverUid: "ub", Text: "hi"}}, nil
			},
		}
		h := NewMessageHandler(messageSvc, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodGet, "/api/v1/auth/messages?peer_uid=ub", "", "ua")

		h.ListMessages(c)

		body := decodeHandlerBody(t, w)
		assert.Equal(t, consts.CodeSuccess, body.Code)

		var views []*dto.MessageView
		require.NoError(t, json.Unmarshal(body.Data, &views))
		require.Len(t, views, 1)
		assert.Equal(t, "hi", views[0].Text)
	})

	t.Run("missing_peer_uid", func(t *testing.T) {
		relay, _ := newRelayForHandlerTest()
		h := NewMessageHandler(&fakeMessageSvcForHandler{}, relay)

		w := httptest.NewRecorder()
		c := newAuthedContext(t, w, http.MethodGet, "/api/v1/auth/messages", "", "ua")

		h.ListMessages(c)

		assert.Equal(t, consts.CodeParamError, decodeHandlerBody(t, w).Code)
	})
}
