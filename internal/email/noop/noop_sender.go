package noop

import (
	"context"
	"log"

	"doklado/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs notifications to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendProcessingFailedEmail(_ context.Context, toEmail, documentName, reason string) error {
	log.Printf("[NOOP EMAIL] Processing failed notice for %s (document %s): %s", toEmail, documentName, reason)
	return nil
}
