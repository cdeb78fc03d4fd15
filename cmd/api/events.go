package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/events"
)

// runEvents logs every proposal and project event until ctx is cancelled.
func runEvents(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is not set")
	}

	nc, err := events.Connect(cfg.NATSURL, log)
	if err != nil {
		return err
	}
	defer nc.Close()

	for _, subject := range []string{"proposal.>", "project.>"} {
		sub, err := nc.Subscribe(subject, func(subject string, data []byte) {
			log.Info("event", zap.String("subject", subject), zap.ByteString("payload", data))
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	log.Info("watching domain events", zap.String("url", cfg.NATSURL))
	<-ctx.Done()
	return nil
}
