package port

import "context"

// EmailSender delivers operational notifications to job owners.
type EmailSender interface {
	SendProcessingFailedEmail(ctx context.Context, toEmail, documentName, reason string) error
}
