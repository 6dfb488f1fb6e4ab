package services

import (
	"context"
	"fmt"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// AlertNotifier is told about negative articles newly added to the inbox
type AlertNotifier interface {
	NotifyNegative(ctx context.Context, articles []models.Article) error
}

// MailSender sends a templated message
type MailSender interface {
	Send(ctx context.Context, recipient, templateFile string, data any) error
}

// EmailNotifier mails a digest of new negative articles
type EmailNotifier struct {
	sender    MailSender
	recipient string
	location  *time.Location
	logger    *core.Logger
}

// NewEmailNotifier creates a notifier that mails recipient
func NewEmailNotifier(sender MailSender, recipient string, location *time.Location, logger *core.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		recipient: recipient,
		location:  location,
		logger:    logger,
	}
}

type alertDigestItem struct {
	Time    string
	Press   string
	Message string
	Link    string
}

// NotifyNegative sends one message listing every article
func (n *EmailNotifier) NotifyNegative(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	items := make([]alertDigestItem, 0, len(articles))
	for _, article := range SortByPublished(append([]models.Article(nil), articles...)) {
		items = append(items, alertDigestItem{
			Time:    formatExportTime(article.PublishedAt, n.location),
			Press:   article.Press,
			Message: AlertMessage(article),
			Link:    article.Link,
		})
	}

	data := map[string]any{
		"Count": len(items),
		"Items": items,
	}

	if err := n.sender.Send(ctx, n.recipient, "negative_alert.tmpl", data); err != nil {
		return fmt.Errorf("failed to send negative alert digest: %w", err)
	}

	n.logger.Info("Sent negative alert digest", "recipient", n.recipient, "articles", len(items))
	return nil
}
