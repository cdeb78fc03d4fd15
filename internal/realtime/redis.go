package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, addr, password string, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	log.Info("redis connected", zap.String("addr", addr))
	return rdb, nil
}

// NotificationChannel is the pub/sub channel carrying userID's events.
func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// Event is the envelope every realtime push uses.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Notifier pushes events to a user's sockets on this instance and publishes
// them on Redis for other instances and workers.
type Notifier struct {
	hub *Hub
	rdb *redis.Client
	log *zap.Logger
}

// NewNotifier accepts a nil rdb, in which case only the hub is used.
func NewNotifier(hub *Hub, rdb *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, rdb: rdb, log: log}
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	ev := Event{Type: event, Data: payload}
	n.hub.SendToUser(userID, ev)

	if n.rdb == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("failed to encode notification", zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, NotificationChannel(userID), data).Err(); err != nil {
		n.log.Warn("failed to publish notification",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
