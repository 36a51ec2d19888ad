// Package store archives match summaries in Redis.
//
// Every match is stored as a JSON document under <prefix>match:<id>. A
// sorted set <prefix>matches orders the match IDs by the time of their
// last update.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/internal/positionid"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/match"
)

// DefaultPrefix is prepended to all keys.
const DefaultPrefix = "fibs:"

// Summary is the archived form of a match.
type Summary struct {
	ID       string        `json:"id"`
	Players  [2]string     `json:"players"`
	Length   int           `json:"length"`
	Crawford bool          `json:"crawford"`
	Scores   [2]int        `json:"scores"`
	Winner   string        `json:"winner,omitempty"`
	Games    []GameSummary `json:"games"`
	Started  time.Time     `json:"started"`
	Updated  time.Time     `json:"updated"`
}

// GameSummary describes one game of an archived match.
type GameSummary struct {
	Number   int    `json:"number"`
	Scores   [2]int `json:"scores"` // Match score before the game
	Crawford bool   `json:"crawford"`
	Actions  int    `json:"actions"`
	Points   int    `json:"points"`
	Winner   string `json:"winner,omitempty"`
	Position string `json:"position"` // GNU Backgammon position ID of the last position
}

// Summarize builds the summary of m.
func Summarize(m *match.Match) Summary {
	s := Summary{
		ID:       m.ID.String(),
		Players:  m.Players,
		Length:   m.Length,
		Crawford: m.Crawford,
		Scores:   m.Scores(),
		Started:  m.Started,
	}
	if w := m.Winner(); w != engine.None {
		s.Winner = m.Players[w.Index()]
	}
	for i, g := range m.Games() {
		gs := GameSummary{
			Number:   i + 1,
			Scores:   g.InitialPosition().Scores,
			Crawford: g.IsCrawford(),
			Actions:  g.Len(),
			Points:   abs(g.Score()),
			Position: positionid.Encode(g.Position()),
		}
		if w := g.Winner(); w != engine.None {
			gs.Winner = m.Players[w.Index()]
		}
		s.Games = append(s.Games, gs)
	}
	return s
}

// Store is a Redis backed match archive. It is safe for concurrent use.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires archived matches after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the time source used for update times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New wraps an existing client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{
		rdb:    rdb,
		prefix: DefaultPrefix,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the Redis server at url (redis://host:port/db) and
// checks the connection.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, opts...), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) keyMatch(id string) string { return s.prefix + "match:" + id }
func (s *Store) keyIndex() string          { return s.prefix + "matches" }

// Save writes the summary of m and moves it to the front of the index.
func (s *Store) Save(ctx context.Context, m *match.Match) error {
	sum := Summarize(m)
	sum.Updated = s.now().UTC()

	raw, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encoding match %s: %w", sum.ID, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keyMatch(sum.ID), raw, s.ttl)
		pipe.ZAdd(ctx, s.keyIndex(), redis.Z{
			Score:  float64(sum.Updated.UnixMilli()),
			Member: sum.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving match %s: %w", sum.ID, err)
	}
	s.log.Debug("match saved",
		zap.String("match", sum.ID),
		zap.Int("games", len(sum.Games)))
	return nil
}

// Load returns the summary stored for id.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Summary, error) {
	return s.load(ctx, id.String())
}

func (s *Store) load(ctx context.Context, id string) (*Summary, error) {
	raw, err := s.rdb.Get(ctx, s.keyMatch(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", errs.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading match %s: %w", id, err)
	}
	var sum Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil, fmt.Errorf("decoding match %s: %w", id, err)
	}
	return &sum, nil
}

// Recent returns up to n summaries, most recently updated first. Index
// entries whose document expired are dropped from the index.
func (s *Store) Recent(ctx context.Context, n int) ([]Summary, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		sum, err := s.load(ctx, id)
		if errors.Is(err, errs.ErrMatchNotFound) {
			s.log.Debug("dropping expired match", zap.String("match", id))
			_ = s.rdb.ZRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
