package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

const (
	socketSendBufferSize = 16
	socketPingInterval   = 30 * time.Second
)

// Socket reply types.
const (
	socketReplySession = "session"
	socketReplySummary = "summary"
	socketReplyError   = "error"
)

// InterviewSocketHandler serves the interview over a websocket. Clients send
// dto.SocketCommand frames and receive dto.SocketReply frames; changes made by other
// clients of the same session are pushed as they happen.
type InterviewSocketHandler struct {
	service   service.InterviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewInterviewSocketHandler creates a websocket handler.
func NewInterviewSocketHandler(service service.InterviewService, validate *validator.Validate, logger zerolog.Logger) *InterviewSocketHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &InterviewSocketHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "interview_socket_handler").Logger(),
	}
}

// Register binds the websocket route under the interviews group.
func (h *InterviewSocketHandler) Register(router fiber.Router) {
	router.Get("/:id/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(h.handleConnection))
}

type socketClient struct {
	conn      *websocket.Conn
	handler   *InterviewSocketHandler
	sessionID string
	ctx       context.Context
	logger    zerolog.Logger
	send      chan outbound
	closed    chan struct{}
	once      sync.Once
	lastSent  time.Time
}

func (h *InterviewSocketHandler) handleConnection(conn *websocket.Conn) {
	id := conn.Params("id")
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	session, err := h.service.Get(baseCtx, id)
	if err != nil {
		code, message := websocket.CloseInternalServerErr, "failed to load interview"
		if errors.Is(err, service.ErrSessionNotFound) {
			code, message = websocket.ClosePolicyViolation, "interview session not found"
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, message))
		_ = conn.Close()
		return
	}

	client := &socketClient{
		conn:      conn,
		handler:   h,
		sessionID: id,
		ctx:       baseCtx,
		logger: h.logger.With().
			Str("session_id", id).
			Str("correlation_id", middleware.CorrelationIDFromContext(baseCtx)).
			Logger(),
		send:   make(chan outbound, socketSendBufferSize),
		closed: make(chan struct{}),
	}

	events, unsubscribe := h.service.Watch(id)
	defer unsubscribe()

	client.logger.Info().Msg("interview websocket connected")
	client.enqueue(outbound{reply: dto.SocketReply{Type: socketReplySession, Session: &session}})

	go client.writer(events)
	client.reader()
	client.logger.Info().Msg("interview websocket disconnected")
}

func (c *socketClient) reader() {
	defer c.close()

	for {
		var command dto.SocketCommand
		if err := c.conn.ReadJSON(&command); err != nil {
			c.logger.Debug().Err(err).Msg("interview read loop ended")
			return
		}

		issuedAt := time.Now()
		reply := c.dispatch(command)

		select {
		case <-c.closed:
			return
		default:
		}
		out := outbound{reply: reply}
		if isMutation(command.Type) {
			out.issuedAt = issuedAt
		}
		c.enqueue(out)
	}
}

// outbound is a reply waiting for the writer. issuedAt is set for replies to commands
// that change the session.
type outbound struct {
	reply    dto.SocketReply
	issuedAt time.Time
}

func isMutation(commandType string) bool {
	switch commandType {
	case dto.SocketCommandBegin, dto.SocketCommandAnswer, dto.SocketCommandNext, dto.SocketCommandReset:
		return true
	default:
		return false
	}
}

// delivered reports whether the session carried by out already reached the client as a
// pushed update. Replies that left the session untouched are always written.
func (c *socketClient) delivered(out outbound) bool {
	session := out.reply.Session
	if out.issuedAt.IsZero() || out.reply.Type != socketReplySession || session == nil {
		return false
	}
	if session.UpdatedAt.Before(out.issuedAt) {
		return false
	}
	return !session.UpdatedAt.After(c.lastSent)
}

func (c *socketClient) dispatch(command dto.SocketCommand) dto.SocketReply {
	if err := c.handler.validator.Struct(command); err != nil {
		return dto.SocketReply{Type: socketReplyError, Message: "invalid command"}
	}

	svc := c.handler.service
	var (
		session dto.SessionResponse
		err     error
	)

	switch command.Type {
	case dto.SocketCommandBegin:
		session, err = svc.Begin(c.ctx, c.sessionID)
	case dto.SocketCommandAnswer:
		var response dto.AnswerResponse
		response, err = svc.Answer(c.ctx, c.sessionID, dto.AnswerRequest{Answer: command.Answer})
		session = response.Session
	case dto.SocketCommandNext:
		session, err = svc.Next(c.ctx, c.sessionID)
	case dto.SocketCommandReset:
		session, err = svc.Reset(c.ctx, c.sessionID)
	case dto.SocketCommandState:
		session, err = svc.Get(c.ctx, c.sessionID)
	case dto.SocketCommandSummary:
		summary, summaryErr := svc.Summary(c.ctx, c.sessionID)
		if summaryErr != nil {
			return c.errorReply(summaryErr)
		}
		return dto.SocketReply{Type: socketReplySummary, Message: summary.Feedback, Session: c.current()}
	}

	if err != nil {
		return c.errorReply(err)
	}
	return dto.SocketReply{Type: socketReplySession, Session: &session}
}

func (c *socketClient) current() *dto.SessionResponse {
	session, err := c.handler.service.Get(c.ctx, c.sessionID)
	if err != nil {
		return nil
	}
	return &session
}

func (c *socketClient) errorReply(err error) dto.SocketReply {
	switch {
	case isValidationError(err):
		return dto.SocketReply{Type: socketReplyError, Message: "invalid answer"}
	case errors.Is(err, service.ErrGenerationUnavailable):
		return dto.SocketReply{Type: socketReplyError, Message: err.Error(), Retryable: true}
	case errors.Is(err, service.ErrNoQuestions):
		return dto.SocketReply{Type: socketReplyError, Message: "no interview questions could be generated, please retry", Retryable: true}
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNotAwaitingAnswer),
		errors.Is(err, service.ErrInterviewIncomplete):
		return dto.SocketReply{Type: socketReplyError, Message: err.Error()}
	default:
		c.logger.Error().Err(err).Msg("interview socket command failed")
		return dto.SocketReply{Type: socketReplyError, Message: "internal server error"}
	}
}

func (c *socketClient) enqueue(out outbound) {
	select {
	case c.send <- out:
	default:
		c.logger.Warn().Msg("socket queue full, dropping reply")
	}
}

// writer owns all writes to the connection. A change reaches the client once, either as
// a pushed update or as the reply to the command that made it.
func (c *socketClient) writer(events <-chan service.InterviewEvent) {
	defer c.close()

	ticker := time.NewTicker(socketPingInterval)
	defer ticker.Stop()

	for {
		select {
		case out := <-c.send:
			if c.delivered(out) {
				continue
			}
			if !c.write(out.reply) {
				return
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Type != service.EventSessionUpdated || event.Session == nil {
				continue
			}
			if !event.Session.UpdatedAt.After(c.lastSent) {
				continue
			}
			if !c.write(dto.SocketReply{Type: socketReplySession, Session: event.Session}) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.logger.Debug().Err(err).Msg("interview ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *socketClient) write(reply dto.SocketReply) bool {
	if reply.Session != nil && reply.Session.UpdatedAt.After(c.lastSent) {
		c.lastSent = reply.Session.UpdatedAt
	}
	if err := c.conn.WriteJSON(reply); err != nil {
		c.logger.Debug().Err(err).Msg("interview write loop terminated")
		return false
	}
	return true
}

func (c *socketClient) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}
