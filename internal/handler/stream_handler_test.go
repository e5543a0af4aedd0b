package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

type threadAuthorizerStub struct {
	err error
}

func (s threadAuthorizerStub) AuthorizeThread(ctx context.Context, caller *models.User, id int64) (*models.Complaint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Complaint{ID: id}, nil
}

type subscriberStub struct {
	ch  chan []byte
	err error
}

func (s subscriberStub) Subscribe(ctx context.Context, complaintID int64) (<-chan []byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

func newStreamServer(h *StreamHandler) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.User{ID: "u1"})
		c.Next()
	})
	r.GET("/complaints/:id/messages/stream", h.Messages)
	return httptest.NewServer(r)
}

func TestStreamHandlerDeliversMessages(t *testing.T) {
	ch := make(chan []byte, 1)
	srv := newStreamServer(NewStreamHandler(threadAuthorizerStub{}, subscriberStub{ch: ch}, nil, nil, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/complaints/3/messages/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ch <- []byte(`{"id":1,"message":"hi"}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"message":"hi"}`, string(payload))
}

func TestStreamHandlerRejectsBeforeUpgrade(t *testing.T) {
	cases := map[string]struct {
		handler *StreamHandler
		status  int
	}{
		"forbidden thread": {
			handler: NewStreamHandler(threadAuthorizerStub{err: appErrors.Clone(appErrors.ErrForbidden, "complaint belongs to another user")}, subscriberStub{}, nil, nil, nil),
			status:  http.StatusForbidden,
		},
		"bus not configured": {
			handler: NewStreamHandler(threadAuthorizerStub{}, subscriberStub{err: appErrors.Clone(appErrors.ErrUnavailable, "live message stream is not configured")}, nil, nil, nil),
			status:  http.StatusServiceUnavailable,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newStreamServer(tc.handler)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/complaints/3/messages/stream")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://desk.example.com/"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/stream", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://api.example.com")
	assert.True(t, check(req))

	assert.True(t, originChecker(nil)(req))
}
