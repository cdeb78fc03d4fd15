package opportunities

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenTTL bounds how long shown URLs are remembered per user and query.
const SeenTTL = 30 * time.Minute

// SeenStore remembers which result URLs a user was already shown.
type SeenStore interface {
	Seen(ctx context.Context, key string) (map[string]bool, error)
	Add(ctx context.Context, key string, urls []string) error
	Clear(ctx context.Context, key string) error
}

type RedisSeenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSeenStore(rdb *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{rdb: rdb, ttl: SeenTTL}
}

func (s *RedisSeenStore) Seen(ctx context.Context, key string) (map[string]bool, error) {
	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(members))
	for _, m := range members {
		out[m] = true
	}
	return out, nil
}

func (s *RedisSeenStore) Add(ctx context.Context, key string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	members := make([]interface{}, len(urls))
	for i, u := range urls {
		members[i] = u
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSeenStore) Clear(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// MemorySeenStore keeps seen URLs in process. Entries never expire.
type MemorySeenStore struct {
	mu   sync.Mutex
	sets map[string]map[string]bool
}

func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{sets: map[string]map[string]bool{}}
}

func (s *MemorySeenStore) Seen(_ context.Context, key string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.sets[key]))
	for u := range s.sets[key] {
		out[u] = true
	}
	return out, nil
}

func (s *MemorySeenStore) Add(_ context.Context, key string, urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = map[string]bool{}
		s.sets[key] = set
	}
	for _, u := range urls {
		set[u] = true
	}
	return nil
}

func (s *MemorySeenStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
	return nil
}
