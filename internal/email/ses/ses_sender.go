package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"doklado/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendProcessingFailedEmail(ctx context.Context, toEmail, documentName, reason string) error {
	subject := fmt.Sprintf("Processing failed for %s", documentName)
	htmlBody := buildProcessingFailedHTML(documentName, reason)
	textBody := fmt.Sprintf(
		"Hello,\n\nWe could not finish processing your document %q.\n\nReason: %s\n\nYou can re-upload the document or trigger reprocessing from the dashboard.\n\nDoklado Team",
		documentName, reason)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildProcessingFailedHTML(documentName, reason string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Document processing failed</h2>
  <p>Hello,</p>
  <p>We could not finish processing your document <strong>%s</strong>.</p>
  <p style="background-color: #FEF2F2; border: 1px solid #FECACA; padding: 12px; border-radius: 6px; color: #991B1B;">%s</p>
  <p>You can re-upload the document or trigger reprocessing from the dashboard.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Doklado - Invoice Extraction</p>
</body>
</html>`, documentName, reason)
}
