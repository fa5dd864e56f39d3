package server

import (
	"time"

	"git.appkode.ru/pub/go/failure"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/internal/worker"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/rest"
)

// restError lifts domain error codes into failure classes so reply.Error
// picks the right HTTP status.
func restError(err error) error {
	code, ok := domain.GetCode(err)
	if !ok {
		return err
	}

	switch code {
	case errcodes.SubjectNotFound,
		errcodes.SellerNotFound,
		errcodes.ItemNotFound,
		errcodes.OfferStateNotFound,
		errcodes.NotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(code))
	case errcodes.ValidationError,
		errcodes.InvalidSubjectID,
		errcodes.InvalidItemID,
		errcodes.InvalidSellerID,
		errcodes.InvalidWebhookURL,
		errcodes.InvalidPaging:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code))
	case errcodes.AlreadyTracked:
		return failure.NewConflictErrorFromError(err, failure.WithCode(code))
	default:
		return err
	}
}

func newRESTSellers(sellers []entity.Seller) []rest.Seller {
	result := make([]rest.Seller, 0, len(sellers))
	for _, seller := range sellers {
		result = append(result, rest.Seller{
			SellerID: seller.SellerID,
			Label:    seller.Label,
		})
	}

	return result
}

func newRESTTrackedItems(items []entity.TrackedItem) []rest.TrackedItem {
	result := make([]rest.TrackedItem, 0, len(items))
	for _, item := range items {
		result = append(result, rest.TrackedItem{
			ItemID: item.ItemID,
			Label:  item.Label,
		})
	}

	return result
}

func newRESTSaleEvents(sales []entity.SaleEvent) []rest.SaleEvent {
	result := make([]rest.SaleEvent, 0, len(sales))
	for _, sale := range sales {
		result = append(result, rest.SaleEvent{
			ID:             sale.ID,
			ItemID:         sale.ItemID,
			HolderID:       sale.HolderID,
			StockBefore:    sale.StockBefore,
			StockAfter:     sale.StockAfter,
			UnitsEstimated: sale.UnitsEstimated,
			OccurredAt:     sale.OccurredAt.UTC().Format(time.RFC3339),
		})
	}

	return result
}

func newRESTStatus(status worker.Status) rest.TrackerStatus {
	result := rest.TrackerStatus{
		Running:       status.Running,
		CycleInFlight: status.CycleInFlight,
	}

	if !status.LastCycleAt.IsZero() {
		result.LastCycleAt = status.LastCycleAt.UTC().Format(time.RFC3339)
	}

	if status.LastResult != nil {
		cycleResult := newRESTCycleResult(*status.LastResult)
		result.LastResult = &cycleResult
	}

	return result
}

func newRESTCycleResult(result worker.CycleResult) rest.CycleResult {
	return rest.CycleResult{
		Subjects:  result.Subjects,
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	}
}
