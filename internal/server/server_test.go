package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/internal/worker"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/rest"
)

type stubTracker struct {
	running    bool
	lastResult worker.CycleResult
	triggerErr error
	triggered  []string
}

func (t *stubTracker) Start(context.Context) { t.running = true }
func (t *stubTracker) Stop()                 { t.running = false }

func (t *stubTracker) Status() worker.Status {
	return worker.Status{Running: t.running, LastResult: &t.lastResult}
}

func (t *stubTracker) TriggerOnce(_ context.Context, subjectID string) (worker.CycleResult, error) {
	t.triggered = append(t.triggered, subjectID)
	if t.triggerErr != nil {
		return worker.CycleResult{}, t.triggerErr
	}
	return t.lastResult, nil
}

type stubStore struct {
	subjects map[string]entity.Subject
	sellers  []entity.Seller
	items    []entity.TrackedItem
	sales    []entity.SaleEvent

	removedSellers []string
	webhooks       map[string]string
	invalidated    []string
}

func newStubStore() *stubStore {
	return &stubStore{
		subjects: map[string]entity.Subject{"subject-1": {ID: "subject-1"}},
		webhooks: map[string]string{},
	}
}

func (s *stubStore) Get(_ context.Context, id string) (*entity.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok {
		return nil, domain.NewError(errcodes.SubjectNotFound, "subject not found")
	}
	return &subject, nil
}

func (s *stubStore) UpdateWebhook(_ context.Context, id, webhookURL string) error {
	s.webhooks[id] = webhookURL
	return nil
}

func (s *stubStore) List(_ context.Context, _ string) ([]entity.Seller, error) {
	return s.sellers, nil
}

func (s *stubStore) Add(_ context.Context, seller *entity.Seller) error {
	s.sellers = append(s.sellers, *seller)
	return nil
}

func (s *stubStore) Remove(_ context.Context, _, sellerID string) error {
	s.removedSellers = append(s.removedSellers, sellerID)
	return nil
}

func (s *stubStore) InvalidateSellers(subjectID string) {
	s.invalidated = append(s.invalidated, subjectID)
}

type stubItems struct {
	items []entity.TrackedItem
}

func (s *stubItems) List(context.Context, string) ([]entity.TrackedItem, error) {
	return s.items, nil
}

func (s *stubItems) Add(_ context.Context, item *entity.TrackedItem) error {
	for _, existing := range s.items {
		if existing.ItemID == item.ItemID {
			return domain.NewError(errcodes.AlreadyTracked, "item is already tracked")
		}
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *stubItems) Remove(_ context.Context, _, itemID string) error {
	for i, item := range s.items {
		if item.ItemID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return domain.NewError(errcodes.ItemNotFound, "tracked item not found")
}

type stubSales struct {
	sales []entity.SaleEvent
}

func (s *stubSales) ListBySubject(_ context.Context, _ string, limit, offset int) ([]entity.SaleEvent, error) {
	if offset >= len(s.sales) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.sales) {
		end = len(s.sales)
	}
	return s.sales[offset:end], nil
}

func (s *stubSales) CountBySubject(context.Context, string) (int, error) {
	return len(s.sales), nil
}

type testAPI struct {
	tracker *stubTracker
	store   *stubStore
	items   *stubItems
	sales   *stubSales
	router  chi.Router
}

func newTestAPI() *testAPI {
	api := &testAPI{
		tracker: &stubTracker{lastResult: worker.CycleResult{Subjects: 1, Processed: 3}},
		store:   newStubStore(),
		items:   &stubItems{},
		sales:   &stubSales{},
	}

	srv := NewServer(
		NewTrackerServer(api.tracker),
		NewSubjectServer(api.store, api.store, api.items, api.sales, api.store),
	)

	api.router = chi.NewRouter()
	srv.RegisterRoutes(api.router)

	return api
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	return rec
}

func TestTrackerEndpoints(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/v1/tracker/start", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.True(api.tracker.running)

	rec = api.do(t, http.MethodGet, "/v1/tracker/status", "")
	rq.Equal(http.StatusOK, rec.Code)

	var status rest.TrackerStatus
	rq.NoError(jsoniter.Unmarshal(rec.Body.Bytes(), &status))
	rq.True(status.Running)
	rq.Equal(3, status.LastResult.Processed)

	rec = api.do(t, http.MethodPost, "/v1/tracker/stop", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.False(api.tracker.running)
}

func TestTriggerRun(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/v1/tracker/subjects/subject-1/run", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal([]string{"subject-1"}, api.tracker.triggered)

	var result rest.CycleResult
	rq.NoError(jsoniter.Unmarshal(rec.Body.Bytes(), &result))
	rq.Equal(3, result.Processed)

	api.tracker.triggerErr = domain.NewError(errcodes.SubjectNotFound, "subject not found")
	rec = api.do(t, http.MethodPost, "/v1/tracker/subjects/nobody/run", "")
	rq.Equal(http.StatusNotFound, rec.Code)
}

func TestSellerEndpoints(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/v1/subjects/subject-1/sellers/",
		`{"sellerId":"A1SELLER","label":"Acme"}`)
	rq.Equal(http.StatusCreated, rec.Code)
	rq.Equal([]string{"subject-1"}, api.store.invalidated)

	rec = api.do(t, http.MethodGet, "/v1/subjects/subject-1/sellers/", "")
	rq.Equal(http.StatusOK, rec.Code)

	var sellers []rest.Seller
	rq.NoError(jsoniter.Unmarshal(rec.Body.Bytes(), &sellers))
	rq.Len(sellers, 1)
	rq.Equal("A1SELLER", sellers[0].SellerID)

	// Missing label fails validation.
	rec = api.do(t, http.MethodPost, "/v1/subjects/subject-1/sellers/",
		`{"sellerId":"A2SELLER"}`)
	rq.Equal(http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/subjects/subject-1/sellers/A1SELLER", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal([]string{"A1SELLER"}, api.store.removedSellers)
	rq.Len(api.store.invalidated, 2)
}

func TestItemEndpoints(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/v1/subjects/subject-1/items/",
		`{"itemId":"B000000001","label":"Widget"}`)
	rq.Equal(http.StatusCreated, rec.Code)

	// Tracking the same item again conflicts.
	rec = api.do(t, http.MethodPost, "/v1/subjects/subject-1/items/",
		`{"itemId":"B000000001","label":"Widget"}`)
	rq.Equal(http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/subjects/subject-1/items/B000000009", "")
	rq.Equal(http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/subjects/subject-1/items/B000000001", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Empty(api.items.items)
}

func TestItemEndpointsUnknownSubject(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodGet, "/v1/subjects/nobody/items/", "")
	rq.Equal(http.StatusNotFound, rec.Code)
}

func TestSalesPagination(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	occurred := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		api.sales.sales = append(api.sales.sales, entity.SaleEvent{
			ID:             "sale",
			ItemID:         "B000000001",
			HolderID:       "A1SELLER",
			StockBefore:    10,
			StockAfter:     9,
			UnitsEstimated: 1,
			OccurredAt:     occurred,
		})
	}

	rec := api.do(t, http.MethodGet, "/v1/subjects/subject-1/sales?page=2&limit=20", "")
	rq.Equal(http.StatusOK, rec.Code)

	var page rest.SalesPage
	rq.NoError(jsoniter.Unmarshal(rec.Body.Bytes(), &page))
	rq.Len(page.Sales, 5)
	rq.Equal(2, page.Pagination.Page)
	rq.Equal(20, page.Pagination.Limit)
	rq.Equal(25, page.Pagination.Total)
	rq.Equal("2026-08-01T12:00:00Z", page.Sales[0].OccurredAt)

	rec = api.do(t, http.MethodGet, "/v1/subjects/subject-1/sales?page=0", "")
	rq.Equal(http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/subjects/subject-1/sales?limit=abc", "")
	rq.Equal(http.StatusBadRequest, rec.Code)
}

func TestWebhookUpdate(t *testing.T) {
	rq := require.New(t)
	api := newTestAPI()

	rec := api.do(t, http.MethodPut, "/v1/subjects/subject-1/webhook",
		`{"webhookUrl":"https://discord.com/api/webhooks/1/abc"}`)
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal("https://discord.com/api/webhooks/1/abc", api.store.webhooks["subject-1"])

	rec = api.do(t, http.MethodPut, "/v1/subjects/subject-1/webhook",
		`{"webhookUrl":"not a url"}`)
	rq.Equal(http.StatusBadRequest, rec.Code)
}
