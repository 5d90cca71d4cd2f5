package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/dto"
)

func startFiberServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	})

	return "ws://" + listener.Addr().String()
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(dto.SocketReply) bool) dto.SocketReply {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var reply dto.SocketReply
		require.NoError(t, conn.ReadJSON(&reply))
		if match(reply) {
			return reply
		}
	}
}

func phaseIs(phase string) func(dto.SocketReply) bool {
	return func(reply dto.SocketReply) bool {
		return reply.Type == socketReplySession && reply.Session != nil && reply.Session.Phase == phase
	}
}

func TestInterviewSocketRunsInterview(t *testing.T) {
	stack := newInterviewStack(t, 2)
	session, err := stack.service.Start(context.Background())
	require.NoError(t, err)

	baseURL := startFiberServer(t, stack.app)
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(baseURL+"/api/v1/interviews/"+session.ID+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	readUntil(t, conn, phaseIs("intro"))

	require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: dto.SocketCommandAnswer, Answer: strPtr("too early")}))
	errReply := readUntil(t, conn, func(reply dto.SocketReply) bool { return reply.Type == socketReplyError })
	require.Contains(t, errReply.Message, "not waiting")

	require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: dto.SocketCommandBegin}))
	started := readUntil(t, conn, phaseIs("recording"))
	require.NotNil(t, started.Session.IntroMessage)

	for _, answer := range []string{"first", "second"} {
		require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: dto.SocketCommandAnswer, Answer: strPtr(answer)}))
	}
	done := readUntil(t, conn, phaseIs("done"))
	require.Equal(t, "Hire", done.Session.Summary.Recommendation)

	require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: dto.SocketCommandSummary}))
	summary := readUntil(t, conn, func(reply dto.SocketReply) bool { return reply.Type == socketReplySummary })
	require.Equal(t, "Well done", summary.Message)

	require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: "dance"}))
	invalid := readUntil(t, conn, func(reply dto.SocketReply) bool { return reply.Type == socketReplyError })
	require.Equal(t, "invalid command", invalid.Message)
}

func TestInterviewSocketPushesChangesFromOtherClients(t *testing.T) {
	stack := newInterviewStack(t, 1)
	session, err := stack.service.Start(context.Background())
	require.NoError(t, err)

	baseURL := startFiberServer(t, stack.app)
	conn, resp, err := websocket.DefaultDialer.Dial(baseURL+"/api/v1/interviews/"+session.ID+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	readUntil(t, conn, phaseIs("intro"))

	_, err = stack.service.Begin(context.Background(), session.ID)
	require.NoError(t, err)

	pushed := readUntil(t, conn, phaseIs("recording"))
	require.Equal(t, session.ID, pushed.Session.ID)
}

func TestInterviewSocketSendsOwnChangeOnce(t *testing.T) {
	stack := newInterviewStack(t, 1)
	session, err := stack.service.Start(context.Background())
	require.NoError(t, err)

	baseURL := startFiberServer(t, stack.app)
	conn, resp, err := websocket.DefaultDialer.Dial(baseURL+"/api/v1/interviews/"+session.ID+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	readUntil(t, conn, phaseIs("intro"))

	require.NoError(t, conn.WriteJSON(dto.SocketCommand{Type: dto.SocketCommandBegin}))
	started := readUntil(t, conn, phaseIs("recording"))

	// Drain whatever else arrives; the read deadline ends the loop.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	for {
		var reply dto.SocketReply
		if err := conn.ReadJSON(&reply); err != nil {
			break
		}
		if reply.Session != nil {
			require.False(t, reply.Session.UpdatedAt.Equal(started.Session.UpdatedAt), "change delivered twice")
		}
	}
}

func TestSocketClientSkipsRepliesAlreadyPushed(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	client := &socketClient{lastSent: base.Add(time.Second)}

	reply := func(updatedAt time.Time) dto.SocketReply {
		return dto.SocketReply{Type: socketReplySession, Session: &dto.SessionResponse{UpdatedAt: updatedAt}}
	}

	require.True(t, client.delivered(outbound{reply: reply(base.Add(time.Second)), issuedAt: base}))
	require.False(t, client.delivered(outbound{reply: reply(base.Add(2 * time.Second)), issuedAt: base}))
	require.False(t, client.delivered(outbound{reply: reply(base.Add(-time.Second)), issuedAt: base}), "unchanged session is still answered")
	require.False(t, client.delivered(outbound{reply: reply(base.Add(time.Second))}), "state reads are always answered")
	require.False(t, client.delivered(outbound{reply: dto.SocketReply{Type: socketReplyError, Message: "boom"}, issuedAt: base}))
}

func TestInterviewSocketRejectsUnknownSession(t *testing.T) {
	stack := newInterviewStack(t, 1)
	baseURL := startFiberServer(t, stack.app)

	conn, resp, err := websocket.DefaultDialer.Dial(baseURL+"/api/v1/interviews/missing/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestInterviewSocketRequiresUpgrade(t *testing.T) {
	stack := newInterviewStack(t, 1)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/interviews/abc/ws", strings.NewReader(""))
	require.NoError(t, err)
	resp, err := stack.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func strPtr(value string) *string {
	return &value
}
