package state

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultView is shown when nothing was persisted.
const DefaultView = "explore"

var (
	ErrInvalidView = errors.New("invalid view name")

	viewName = regexp.MustCompile(`^[a-z][a-z-]{0,31}$`)
)

func ValidView(v string) bool {
	return viewName.MatchString(v)
}

// ViewStore persists the last active view of each user.
type ViewStore interface {
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Set(ctx context.Context, userID uuid.UUID, view string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

func viewKey(userID uuid.UUID) string {
	return "view:" + userID.String()
}

type RedisViewStore struct {
	rdb *redis.Client
}

func NewRedisViewStore(rdb *redis.Client) *RedisViewStore {
	return &RedisViewStore{rdb: rdb}
}

func (s *RedisViewStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	v, err := s.rdb.Get(ctx, viewKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultView, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisViewStore) Set(ctx context.Context, userID uuid.UUID, view string) error {
	if !ValidView(view) {
		return ErrInvalidView
	}
	return s.rdb.Set(ctx, viewKey(userID), view, 0).Err()
}

func (s *RedisViewStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, viewKey(userID)).Err()
}

type MemoryViewStore struct {
	mu    sync.Mutex
	views map[uuid.UUID]string
}

func NewMemoryViewStore() *MemoryViewStore {
	return &MemoryViewStore{views: map[uuid.UUID]string{}}
}

func (s *MemoryViewStore) Get(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[userID]; ok {
		return v, nil
	}
	return DefaultView, nil
}

func (s *MemoryViewStore) Set(_ context.Context, userID uuid.UUID, view string) error {
	if !ValidView(view) {
		return ErrInvalidView
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[userID] = view
	return nil
}

func (s *MemoryViewStore) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, userID)
	return nil
}
