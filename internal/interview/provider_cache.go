package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedProvider keeps generated question sets in Redis so repeated interviews on the
// same topic reuse one generation. Intros are never cached.
type CachedProvider struct {
	next   QuestionProvider
	cache  *redis.Client
	ttl    time.Duration
	topic  string
	logger zerolog.Logger
}

// NewCachedProvider wraps next with a Redis question cache. A nil client or a zero TTL
// returns next unchanged.
func NewCachedProvider(next QuestionProvider, cache *redis.Client, ttl time.Duration, topic string, logger zerolog.Logger) QuestionProvider {
	if cache == nil || ttl <= 0 {
		return next
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		topic:  strings.ToLower(strings.TrimSpace(topic)),
		logger: logger.With().Str("component", "question_cache").Logger(),
	}
}

// GenerateIntro delegates to the wrapped provider.
func (p *CachedProvider) GenerateIntro(ctx context.Context) (string, error) {
	return p.next.GenerateIntro(ctx)
}

// GenerateQuestions serves cached questions when present and fills the cache otherwise.
func (p *CachedProvider) GenerateQuestions(ctx context.Context, n int) ([]string, error) {
	cacheKey := fmt.Sprintf("interview:questions:%s:%d", p.topic, n)

	if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
		var questions []string
		if unmarshalErr := json.Unmarshal([]byte(cached), &questions); unmarshalErr == nil && len(questions) > 0 {
			p.logger.Debug().Str("key", cacheKey).Msg("question cache hit")
			return questions, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		p.logger.Warn().Err(err).Msg("failed to read question cache")
	}

	questions, err := p.next.GenerateQuestions(ctx, n)
	if err != nil {
		return nil, err
	}

	if len(questions) > 0 {
		payload, err := json.Marshal(questions)
		if err == nil {
			if err := p.cache.Set(ctx, cacheKey, payload, p.ttl).Err(); err != nil {
				p.logger.Warn().Err(err).Msg("failed to store question cache")
			}
		}
	}

	return questions, nil
}
