package marketplace

// Wire types of the product endpoint. Only the fields the tracker reads are
// mapped; the upstream payload is much larger.
type productResponse struct {
	Product *productPayload `json:"product"`
}

type productPayload struct {
	ASIN         string         `json:"asin"`
	BuyboxWinner *offerPayload  `json:"buybox_winner"`
	Offers       []offerPayload `json:"offers"`
}

type offerPayload struct {
	MerchantInfo *merchantInfoPayload `json:"merchant_info"`
	Price        *pricePayload        `json:"price"`
	Availability *availabilityPayload `json:"availability"`
	Delivery     *deliveryPayload     `json:"delivery"`
}

type merchantInfoPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pricePayload struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type availabilityPayload struct {
	Type       string `json:"type"`
	StockLevel *int   `json:"stock_level"`
}

type deliveryPayload struct {
	IsPrimeEligible bool `json:"is_prime_eligible"`
}
