// Package messaging owns conversations between two users and the messages
// threaded in them.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message text is required")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// Party is one side of a conversation.
type Party struct {
	ID   uuid.UUID
	Name string
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Find returns the conversation between a and b regardless of argument order.
func (s *Service) Find(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	return s.find(s.db.WithContext(ctx), a, b)
}

func (s *Service) find(tx *gorm.DB, a, b uuid.UUID) (*models.Conversation, error) {
	lo, hi := models.OrderedPair(a, b)

	var conv models.Conversation
	err := tx.
		Where("participant_low = ? AND participant_high = ?", lo, hi).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &conv, nil
}

// GetOrCreate returns the single conversation for the pair, creating it when
// missing. Creation is an insert that does nothing on a pair conflict followed
// by a read, so concurrent callers converge on the same row.
func (s *Service) GetOrCreate(ctx context.Context, me, other Party) (*models.Conversation, bool, error) {
	if me.ID == other.ID {
		return nil, false, ErrSelfConversation
	}

	tx := s.db.WithContext(ctx)

	conv, err := s.find(tx, me.ID, other.ID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, false, err
	}

	lo, hi := models.OrderedPair(me.ID, other.ID)
	fresh := models.Conversation{
		ParticipantLow:  lo,
		ParticipantHigh: hi,
		ParticipantNames: datatypes.NewJSONType(map[string]string{
			me.ID.String():    me.Name,
			other.ID.String(): other.Name,
		}),
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_low"}, {Name: "participant_high"}},
		DoNothing: true,
	}).Create(&fresh)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", res.Error)
	}

	created := res.RowsAffected == 1
	if !created {
		s.log.Debug("conversation created concurrently, reusing",
			zap.String("low", lo.String()), zap.String("high", hi.String()))
	}

	conv, err = s.find(tx, me.ID, other.ID)
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

// Append stores a message and refreshes the conversation's cached last
// message fields, incrementing the unread counter by one.
func (s *Service) Append(ctx context.Context, convID, senderID uuid.UUID, text string) (*models.Message, error) {
	msg := models.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Text:           text,
		Timestamp:      time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		res := tx.Model(&models.Conversation{}).
			Where("id = ?", convID).
			Updates(map[string]interface{}{
				"last_message":      msg.Text,
				"last_message_time": msg.Timestamp,
				"last_sender_id":    senderID,
				"unread_count":      gorm.Expr("unread_count + ?", 1),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Deliver finds or creates the conversation between from and to and appends
// text to it. The returned conversation carries its full message list.
func (s *Service) Deliver(ctx context.Context, from, to Party, text string) (*models.Conversation, *models.Message, error) {
	conv, created, err := s.GetOrCreate(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	msg, err := s.Append(ctx, conv.ID, from.ID, text)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("message delivered",
		zap.String("conversation_id", conv.ID.String()),
		zap.String("sender_id", from.ID.String()),
		zap.Bool("new_conversation", created))

	full, err := s.load(s.db.WithContext(ctx), conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return full, msg, nil
}

// Send appends a message written by senderID to one of their conversations
// and returns the conversation as it is after the append.
func (s *Service) Send(ctx context.Context, senderID, convID uuid.UUID, text string) (*models.Conversation, *models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyMessage
	}

	conv, err := s.Get(ctx, senderID, convID)
	if err != nil {
		return nil, nil, err
	}

	msg, err := s.Append(ctx, conv.ID, senderID, text)
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.load(s.db.WithContext(ctx), conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, msg, nil
}

// Get returns a conversation with its messages if userID takes part in it.
func (s *Service) Get(ctx context.Context, userID, convID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.load(s.db.WithContext(ctx), convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *Service) load(tx *gorm.DB, convID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		First(&conv, "id = ?", convID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// ListForUser returns userID's conversations, most recently active first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Order("last_message_time DESC").
		Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// MarkRead clears the unread state for readerID. Reading your own last
// message changes nothing: the counter belongs to the other side.
func (s *Service) MarkRead(ctx context.Context, readerID, convID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.Get(ctx, readerID, convID)
	if err != nil {
		return nil, err
	}
	if conv.LastSenderID != nil && *conv.LastSenderID == readerID {
		return conv, nil
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, readerID, false).
			Updates(map[string]interface{}{
				"is_read": true,
				"read_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark messages as read: %w", err)
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", convID).
			Update("unread_count", 0).Error
	})
	if err != nil {
		return nil, err
	}

	return s.load(s.db.WithContext(ctx), convID)
}

// UnreadTotal sums the unread counters of userID's conversations where the
// other side wrote last.
func (s *Service) UnreadTotal(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Where("last_sender_id IS NOT NULL AND last_sender_id <> ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return total, nil
}
