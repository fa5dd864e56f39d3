package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/httpx/reply"
	"buybox_tracker/pkg/httpx/req"
	"buybox_tracker/pkg/rest"
)

const (
	defaultSalesLimit = 20
	maxSalesLimit     = 100
)

type subjectRepository interface {
	Get(ctx context.Context, id string) (*entity.Subject, error)
	UpdateWebhook(ctx context.Context, id, webhookURL string) error
}

type sellerRepository interface {
	List(ctx context.Context, subjectID string) ([]entity.Seller, error)
	Add(ctx context.Context, seller *entity.Seller) error
	Remove(ctx context.Context, subjectID, sellerID string) error
}

type itemRepository interface {
	List(ctx context.Context, subjectID string) ([]entity.TrackedItem, error)
	Add(ctx context.Context, item *entity.TrackedItem) error
	Remove(ctx context.Context, subjectID, itemID string) error
}

type saleRepository interface {
	ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]entity.SaleEvent, error)
	CountBySubject(ctx context.Context, subjectID string) (int, error)
}

type sellerCacheInvalidator interface {
	InvalidateSellers(subjectID string)
}

type SubjectServer struct {
	subjects subjectRepository
	sellers  sellerRepository
	items    itemRepository
	sales    saleRepository
	engine   sellerCacheInvalidator
}

func NewSubjectServer(
	subjects subjectRepository,
	sellers sellerRepository,
	items itemRepository,
	sales saleRepository,
	engine sellerCacheInvalidator,
) SubjectServer {
	return SubjectServer{
		subjects: subjects,
		sellers:  sellers,
		items:    items,
		sales:    sales,
		engine:   engine,
	}
}

func (s SubjectServer) getV1Sellers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	sellers, err := s.sellers.List(ctx, subjectID)
	if err != nil {
		return restError(fmt.Errorf("sellers.List: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSellers(sellers))

	return nil
}

func (s SubjectServer) postV1Seller(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	var request rest.Seller
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	seller := entity.Seller{
		SubjectID: subjectID,
		SellerID:  request.SellerID,
		Label:     request.Label,
	}

	if err := s.sellers.Add(ctx, &seller); err != nil {
		return restError(fmt.Errorf("sellers.Add: %w", err))
	}

	s.engine.InvalidateSellers(subjectID)

	reply.Created(w)

	return nil
}

func (s SubjectServer) deleteV1Seller(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	if err := s.sellers.Remove(ctx, subjectID, r.PathValue("sellerID")); err != nil {
		return restError(fmt.Errorf("sellers.Remove: %w", err))
	}

	s.engine.InvalidateSellers(subjectID)

	reply.OK(w)

	return nil
}

func (s SubjectServer) getV1Items(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	items, err := s.items.List(ctx, subjectID)
	if err != nil {
		return restError(fmt.Errorf("items.List: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTTrackedItems(items))

	return nil
}

func (s SubjectServer) postV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	var request rest.TrackedItem
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	item := entity.TrackedItem{
		SubjectID: subjectID,
		ItemID:    request.ItemID,
		Label:     request.Label,
	}

	if err := s.items.Add(ctx, &item); err != nil {
		return restError(fmt.Errorf("items.Add: %w", err))
	}

	reply.Created(w)

	return nil
}

func (s SubjectServer) deleteV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	if err := s.items.Remove(ctx, subjectID, r.PathValue("itemID")); err != nil {
		return restError(fmt.Errorf("items.Remove: %w", err))
	}

	reply.OK(w)

	return nil
}

func (s SubjectServer) getV1Sales(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	page, limit, err := salesPaging(r)
	if err != nil {
		return err
	}

	total, err := s.sales.CountBySubject(ctx, subjectID)
	if err != nil {
		return restError(fmt.Errorf("sales.CountBySubject: %w", err))
	}

	sales, err := s.sales.ListBySubject(ctx, subjectID, limit, (page-1)*limit)
	if err != nil {
		return restError(fmt.Errorf("sales.ListBySubject: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, rest.SalesPage{
		Sales: newRESTSaleEvents(sales),
		Pagination: rest.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})

	return nil
}

func (s SubjectServer) putV1Webhook(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	subjectID, err := s.ensureSubject(ctx, r)
	if err != nil {
		return err
	}

	var request rest.WebhookUpdate
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if err := s.subjects.UpdateWebhook(ctx, subjectID, request.WebhookURL); err != nil {
		return restError(fmt.Errorf("subjects.UpdateWebhook: %w", err))
	}

	reply.OK(w)

	return nil
}

// ensureSubject resolves the subject from the route and confirms it exists,
// so every nested resource consistently replies 404 for unknown subjects.
func (s SubjectServer) ensureSubject(ctx context.Context, r *http.Request) (string, error) {
	subjectID := r.PathValue("subjectID")

	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		return "", restError(fmt.Errorf("subjects.Get: %w", err))
	}

	return subjectID, nil
}

func salesPaging(r *http.Request) (page, limit int, err error) {
	page, err = positiveQueryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}

	limit, err = positiveQueryInt(r, "limit", defaultSalesLimit)
	if err != nil {
		return 0, 0, err
	}

	if limit > maxSalesLimit {
		limit = maxSalesLimit
	}

	return page, limit, nil
}

func positiveQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, failure.NewInvalidArgumentError(
			fmt.Sprintf("query parameter %q must be a positive integer", name),
			failure.WithCode(errcodes.InvalidPaging),
		)
	}

	return value, nil
}
