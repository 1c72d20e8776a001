package notify

import (
	"context"
	"log/slog"
)

// LoggingChatSender stands in for the WhatsApp transport when no
// credentials are configured. It logs what would have been sent.
type LoggingChatSender struct{}

func (LoggingChatSender) SendText(ctx context.Context, phone, body string) error {
	slog.InfoContext(ctx, "Chat notification (dry run)", "phone", phone, "body", body)
	return nil
}

func (LoggingChatSender) SendTemplate(ctx context.Context, phone, template string, params []string) error {
	slog.InfoContext(ctx, "Chat template notification (dry run)",
		"phone", phone, "template", template, "params", params)
	return nil
}
