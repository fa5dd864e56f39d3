package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type stubSubjects struct {
	subject *entity.Subject
	err     error
}

func (s *stubSubjects) Get(context.Context, string) (*entity.Subject, error) {
	return s.subject, s.err
}

func ownershipEvent() entity.Event {
	price := 19.99

	return entity.Event{
		Kind:          entity.EventOwnershipChange,
		SubjectID:     "subject-1",
		ItemID:        "B000000001",
		OldHolderID:   "A1SELLER",
		OldHolderName: "Acme Ltd",
		NewHolderID:   "A2SELLER",
		NewHolderName: "Other",
		IsLoss:        true,
		Price:         &price,
		Currency:      "GBP",
		OccurredAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func saleEvent() entity.Event {
	return entity.Event{
		Kind:           entity.EventSaleEstimate,
		SubjectID:      "subject-1",
		ItemID:         "B000000001",
		HolderName:     "Acme Ltd",
		StockBefore:    10,
		StockAfter:     7,
		UnitsEstimated: 3,
		OccurredAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookSend(t *testing.T) {
	rq := require.New(t)

	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body) //nolint:errcheck
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	webhook := NewWebhook(nil, &stubSubjects{
		subject: &entity.Subject{ID: "subject-1", WebhookURL: srv.URL},
	})

	rq.NoError(webhook.Send(context.Background(), ownershipEvent()))
	rq.Contains(string(gotBody), "BuyBox LOST")
	rq.Contains(string(gotBody), "Acme Ltd")
	rq.Contains(string(gotBody), "Other")
	rq.Contains(string(gotBody), "GBP 19.99")

	rq.NoError(webhook.Send(context.Background(), saleEvent()))
	rq.Contains(string(gotBody), "Estimated Sale Detected")
	rq.Contains(string(gotBody), `10 → 7`)
	rq.Contains(string(gotBody), `"3"`)
}

func TestWebhookSendNoURL(t *testing.T) {
	rq := require.New(t)

	webhook := NewWebhook(nil, &stubSubjects{
		subject: &entity.Subject{ID: "subject-1"},
	})

	// No webhook configured is not an error.
	rq.NoError(webhook.Send(context.Background(), saleEvent()))
}

func TestWebhookSendFailure(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	webhook := NewWebhook(nil, &stubSubjects{
		subject: &entity.Subject{ID: "subject-1", WebhookURL: srv.URL},
	})

	err := webhook.Send(context.Background(), saleEvent())
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.NotifyFailure))
}

type failingSink struct {
	calls int
}

func (s *failingSink) Send(context.Context, entity.Event) error {
	s.calls++
	return errors.New("sink down")
}

func TestDispatcherSwallowsSinkFailures(t *testing.T) {
	rq := require.New(t)

	sink := &failingSink{}
	dispatcher := NewDispatcher(sink)

	events := make(chan entity.Event, 2)
	events <- ownershipEvent()
	events <- saleEvent()
	close(events)

	rq.NoError(dispatcher.Run(context.Background(), events))
	rq.Equal(2, sink.calls)
}
