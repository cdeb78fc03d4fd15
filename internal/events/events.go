// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectProposalSubmitted = "proposal.submitted"
	SubjectProposalDecided   = "proposal.decided"
	SubjectProjectStatus     = "project.status"
)

type ProposalSubmitted struct {
	ProposalID     string `json:"proposal_id"`
	ProjectID      string `json:"project_id"`
	FreelancerID   string `json:"freelancer_id"`
	CreatorID      string `json:"creator_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Delivered      bool   `json:"delivered"`
	Timestamp      string `json:"timestamp"`
}

type ProposalDecided struct {
	ProposalID   string `json:"proposal_id"`
	ProjectID    string `json:"project_id"`
	FreelancerID string `json:"freelancer_id"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
}

type ProjectStatusChanged struct {
	ProjectID string `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp string `json:"timestamp"`
}

// Stamp formats t the way every event payload carries it.
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func Connect(url string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("creatormatch-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	log.Info("nats connected", zap.String("url", url))
	return &NATSPublisher{conn: conn, log: log}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

// Subscribe delivers raw payloads for subject (wildcards allowed) to handler.
func (p *NATSPublisher) Subscribe(subject string, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	return p.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("nats drain failed", zap.Error(err))
	}
}

// Nop drops every event. Used when NATS_URL is empty.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Recorded is one event captured by Memory.
type Recorded struct {
	Subject string
	Event   interface{}
}

// Memory keeps published events in order.
type Memory struct {
	mu     sync.Mutex
	events []Recorded
}

func (m *Memory) Publish(_ context.Context, subject string, event interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Recorded{Subject: subject, Event: event})
	return nil
}

func (m *Memory) Events() []Recorded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Recorded, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Subject)
	}
	return out
}
