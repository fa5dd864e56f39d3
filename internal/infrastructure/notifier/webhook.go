package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// SubjectResolver provides the per-subject webhook URL.
type SubjectResolver interface {
	Get(ctx context.Context, id string) (*entity.Subject, error)
}

// Webhook posts Discord-style embeds to each subject's configured webhook.
// Subjects without a webhook URL are silently skipped.
type Webhook struct {
	httpClient *http.Client
	subjects   SubjectResolver
}

func NewWebhook(httpClient *http.Client, subjects SubjectResolver) *Webhook {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Webhook{
		httpClient: httpClient,
		subjects:   subjects,
	}
}

func (w *Webhook) Send(ctx context.Context, event entity.Event) error {
	subject, err := w.subjects.Get(ctx, event.SubjectID)
	if err != nil {
		return domain.WrapError(err, errcodes.NotifyFailure, "failed to resolve subject")
	}

	if subject.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(newEventPayload(event))
	if err != nil {
		return domain.WrapError(err, errcodes.NotifyFailure, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, subject.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return domain.WrapError(err, errcodes.NotifyFailure, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(err, errcodes.NotifyFailure, "webhook request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.NewError(errcodes.NotifyFailure,
			fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}

	return nil
}
