package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
)

const interviewEventBufferSize = 8

// Interview event types.
const (
	EventSessionUpdated     = "session.updated"
	EventInterviewCompleted = "interview.completed"
)

// InterviewEvent is emitted whenever a session changes.
type InterviewEvent struct {
	Type       string               `json:"type"`
	Source     string               `json:"source"`
	SessionID  string               `json:"session_id"`
	Session    *dto.SessionResponse `json:"session,omitempty"`
	Summary    *dto.SummaryResponse `json:"summary,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// InterviewEventPublisher fans interview events out to local watchers and, for completed
// interviews, to the configured Redis channel and NATS subject.
type InterviewEventPublisher interface {
	Publish(ctx context.Context, event InterviewEvent) error
	Subscribe(sessionID string) (<-chan InterviewEvent, func())
}

type interviewEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string

	mu          sync.RWMutex
	subscribers map[string]map[chan InterviewEvent]struct{}
}

// NewInterviewEventPublisher constructs a publisher. Either transport may be nil.
func NewInterviewEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) InterviewEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":completed"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".completed"
	}

	return &interviewEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "interview_events").Logger(),
		nodeID:       uuid.NewString(),
		subscribers:  make(map[string]map[chan InterviewEvent]struct{}),
	}
}

func (p *interviewEventPublisher) Publish(ctx context.Context, event InterviewEvent) error {
	if event.Source == "" {
		event.Source = p.nodeID
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	p.broadcast(event)

	if event.Type != EventInterviewCompleted {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (p *interviewEventPublisher) Subscribe(sessionID string) (<-chan InterviewEvent, func()) {
	channel := make(chan InterviewEvent, interviewEventBufferSize)

	p.mu.Lock()
	if _, exists := p.subscribers[sessionID]; !exists {
		p.subscribers[sessionID] = make(map[chan InterviewEvent]struct{})
	}
	p.subscribers[sessionID][channel] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()

			if subscribers, ok := p.subscribers[sessionID]; ok {
				delete(subscribers, channel)
				if len(subscribers) == 0 {
					delete(p.subscribers, sessionID)
				}
			}
			close(channel)
		})
	}

	return channel, cleanup
}

// broadcast drops events for watchers whose buffer is full.
func (p *interviewEventPublisher) broadcast(event InterviewEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for ch := range p.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
			p.logger.Debug().Str("session_id", event.SessionID).Msg("dropping event for slow watcher")
		}
	}
}
