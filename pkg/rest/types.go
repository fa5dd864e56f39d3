// REST models of the administrative API. Kept separate from the domain
// entities so the wire format can evolve independently.
package rest

type Seller struct {
	SellerID string `json:"sellerId" validate:"required"`
	Label    string `json:"label" validate:"required"`
}

type TrackedItem struct {
	ItemID string `json:"itemId" validate:"required"`
	Label  string `json:"label,omitempty"`
}

type WebhookUpdate struct {
	WebhookURL string `json:"webhookUrl" validate:"required,url"`
}

type SaleEvent struct {
	ID             string `json:"id"`
	ItemID         string `json:"itemId"`
	HolderID       string `json:"holderId"`
	StockBefore    int    `json:"stockBefore"`
	StockAfter     int    `json:"stockAfter"`
	UnitsEstimated int    `json:"unitsEstimated"`
	OccurredAt     string `json:"occurredAt"`
}

type SalesPage struct {
	Sales      []SaleEvent `json:"sales"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type TrackerStatus struct {
	Running       bool         `json:"running"`
	CycleInFlight bool         `json:"cycleInFlight"`
	LastCycleAt   string       `json:"lastCycleAt,omitempty"`
	LastResult    *CycleResult `json:"lastResult,omitempty"`
}

type CycleResult struct {
	Subjects  int `json:"subjects"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Error is the error envelope of the administrative API.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}
