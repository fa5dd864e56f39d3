package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"
	"github.com/samber/lo"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/logx"
	"buybox_tracker/pkg/metrics"
)

const defaultSellerCacheTTL = time.Minute

type SnapshotProvider interface {
	GetOffer(ctx context.Context, itemID string) (entity.OfferSnapshot, error)
	GetStock(ctx context.Context, itemID, holderID string) (entity.StockObservation, error)
}

type OfferStateRepository interface {
	Get(ctx context.Context, subjectID, itemID string) (*entity.OfferState, error)
	Upsert(ctx context.Context, state *entity.OfferState) error
}

type SaleEventRepository interface {
	Append(ctx context.Context, event *entity.SaleEvent) error
}

type SellerRepository interface {
	ListSellerIDs(ctx context.Context, subjectID string) ([]string, error)
}

// Service is the diff engine: it pulls a fresh snapshot for one tracked item,
// compares it to the stored state, classifies the transition, persists the new
// state and emits domain events for the notifier.
type Service struct {
	provider    SnapshotProvider
	offerStates OfferStateRepository
	saleEvents  SaleEventRepository
	sellers     SellerRepository
	events      chan<- entity.Event

	sellerCache *cache.Cache
	metrics     *metrics.Tracker
}

func NewService(
	provider SnapshotProvider,
	offerStates OfferStateRepository,
	saleEvents SaleEventRepository,
	sellers SellerRepository,
	events chan<- entity.Event,
) *Service {
	return &Service{
		provider:    provider,
		offerStates: offerStates,
		saleEvents:  saleEvents,
		sellers:     sellers,
		events:      events,
		sellerCache: cache.New(defaultSellerCacheTTL, 5*time.Minute),
	}
}

func (s *Service) WithSellerCacheTTL(ttl time.Duration) *Service {
	s.sellerCache = cache.New(ttl, 5*ttl)
	return s
}

func (s *Service) WithMetrics(m *metrics.Tracker) *Service {
	s.metrics = m
	return s
}

// ProcessItem runs one diff cycle for a single tracked item. The returned
// error is informational for the scheduler's counters: whatever happens, the
// stored state is either untouched or reflects a fully successful read.
func (s *Service) ProcessItem(ctx context.Context, subjectID string, item entity.TrackedItem) error {
	snapshot, err := s.provider.GetOffer(ctx, item.ItemID)

	holderGone := domain.HasCode(err, errcodes.OfferNotFound)
	if err != nil && !holderGone {
		if domain.HasCode(err, errcodes.RateLimited) && s.metrics != nil {
			s.metrics.RateLimitHits.Inc()
		}
		return fmt.Errorf("get offer: %w", err)
	}

	previous, err := s.offerStates.Get(ctx, subjectID, item.ItemID)
	if err != nil {
		if !domain.HasCode(err, errcodes.OfferStateNotFound) {
			return fmt.Errorf("get previous state: %w", err)
		}
		previous = nil // first observation: seed state, emit nothing
	}

	if holderGone {
		// "No holder" is only meaningful when somebody held the offer
		// before: then it is a loss-of-buybox transition to nil. Otherwise
		// the item is skipped and the stored state stays untouched.
		if previous == nil || previous.HolderID == "" {
			return domain.NewError(errcodes.OfferNotFound, "no featured offer holder")
		}
		snapshot = entity.OfferSnapshot{ItemID: item.ItemID, ObservedAt: time.Now().UTC()}
	}

	trackedSellers, err := s.sellerSet(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("list tracked sellers: %w", err)
	}

	var events []entity.Event

	if previous != nil && previous.HolderID != snapshot.HolderID {
		_, isGain := trackedSellers[snapshot.HolderID]
		_, isLoss := trackedSellers[previous.HolderID]

		logger(ctx).Info("ownership change detected",
			slog.String(logx.FieldItemID, item.ItemID),
			slog.String("old-holder", previous.HolderID),
			slog.String("new-holder", snapshot.HolderID),
		)

		events = append(events, entity.Event{
			Kind:          entity.EventOwnershipChange,
			SubjectID:     subjectID,
			ItemID:        item.ItemID,
			ItemLabel:     item.Label,
			OldHolderID:   previous.HolderID,
			OldHolderName: previous.HolderName,
			NewHolderID:   snapshot.HolderID,
			NewHolderName: snapshot.HolderName,
			IsGain:        isGain,
			IsLoss:        previous.HolderID != "" && isLoss,
			Price:         snapshot.Price,
			Currency:      snapshot.Currency,
			OccurredAt:    snapshot.ObservedAt,
		})

		if s.metrics != nil {
			s.metrics.OwnershipChanges.Inc()
		}
	}

	stockLevel := s.observeStock(ctx, subjectID, item, previous, snapshot, trackedSellers, &events)

	next := &entity.OfferState{
		SubjectID:  subjectID,
		ItemID:     item.ItemID,
		HolderID:   snapshot.HolderID,
		HolderName: snapshot.HolderName,
		Price:      snapshot.Price,
		Currency:   snapshot.Currency,
		StockLevel: stockLevel,
		ObservedAt: snapshot.ObservedAt,
	}

	// State always reflects the latest successful read, whether or not any
	// event fired.
	if err := s.offerStates.Upsert(ctx, next); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	// Dispatch after the state write committed: notification delivery never
	// rolls persistence back.
	for _, event := range events {
		s.emit(ctx, event)
	}

	return nil
}

// observeStock fetches the current holder's stock and, for a tracked seller
// with a prior stock record, turns a decrease into a persisted SaleEvent plus
// a sale-estimate notification.
func (s *Service) observeStock(
	ctx context.Context,
	subjectID string,
	item entity.TrackedItem,
	previous *entity.OfferState,
	snapshot entity.OfferSnapshot,
	trackedSellers map[string]struct{},
	events *[]entity.Event,
) *int {
	if snapshot.HolderID == "" {
		return nil
	}

	observation, err := s.provider.GetStock(ctx, item.ItemID, snapshot.HolderID)
	if err != nil {
		// Unknown stock is not a failure of the whole item: the state still
		// moves forward with a nil stock level.
		logger(ctx).Warn("failed to fetch stock level",
			slog.String(logx.FieldItemID, item.ItemID),
			slog.String(logx.FieldHolderID, snapshot.HolderID),
			logx.Error(err),
		)
		return nil
	}

	current := observation.StockLevel

	if _, tracked := trackedSellers[snapshot.HolderID]; !tracked {
		return current
	}

	if previous == nil || previous.StockLevel == nil || current == nil {
		return current
	}

	// A negative reading is a provider glitch, never a sale.
	if *current < 0 || *current >= *previous.StockLevel {
		return current
	}

	units := *previous.StockLevel - *current

	saleEvent := &entity.SaleEvent{
		ID:             xid.New().String(),
		SubjectID:      subjectID,
		ItemID:         item.ItemID,
		HolderID:       snapshot.HolderID,
		StockBefore:    *previous.StockLevel,
		StockAfter:     *current,
		UnitsEstimated: units,
		OccurredAt:     snapshot.ObservedAt,
	}

	if err := s.saleEvents.Append(ctx, saleEvent); err != nil {
		logger(ctx).Error("failed to append sale event",
			slog.String(logx.FieldItemID, item.ItemID),
			logx.Error(err),
		)
		return current
	}

	logger(ctx).Info("stock decrease detected",
		slog.String(logx.FieldItemID, item.ItemID),
		slog.String(logx.FieldHolderID, snapshot.HolderID),
		slog.Int("stock-before", saleEvent.StockBefore),
		slog.Int("stock-after", saleEvent.StockAfter),
		slog.Int("units", units),
	)

	*events = append(*events, entity.Event{
		Kind:           entity.EventSaleEstimate,
		SubjectID:      subjectID,
		ItemID:         item.ItemID,
		ItemLabel:      item.Label,
		HolderName:     snapshot.HolderName,
		Price:          snapshot.Price,
		Currency:       snapshot.Currency,
		StockBefore:    saleEvent.StockBefore,
		StockAfter:     saleEvent.StockAfter,
		UnitsEstimated: units,
		OccurredAt:     saleEvent.OccurredAt,
	})

	if s.metrics != nil {
		s.metrics.SaleEvents.Inc()
		s.metrics.UnitsEstimated.Add(float64(units))
	}

	return current
}

// sellerSet resolves the subject's tracked seller identities, cached so a
// cycle over many items does not re-query per item.
func (s *Service) sellerSet(ctx context.Context, subjectID string) (map[string]struct{}, error) {
	if cached, found := s.sellerCache.Get(subjectID); found {
		return cached.(map[string]struct{}), nil
	}

	ids, err := s.sellers.ListSellerIDs(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	set := lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})

	s.sellerCache.Set(subjectID, set, cache.DefaultExpiration)

	return set, nil
}

// InvalidateSellers drops the cached seller set after a seller CRUD change.
func (s *Service) InvalidateSellers(subjectID string) {
	s.sellerCache.Delete(subjectID)
}

// emit hands the event to the notifier without ever blocking the cycle. A
// full buffer drops the notification: delivery is at most once.
func (s *Service) emit(ctx context.Context, event entity.Event) {
	select {
	case s.events <- event:
	default:
		logger(ctx).Warn("notification dropped, event buffer full",
			slog.String(logx.FieldEventKind, string(event.Kind)),
			slog.String(logx.FieldItemID, event.ItemID),
		)
	}
}
