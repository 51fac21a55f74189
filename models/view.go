package models

// ViewRow is a GMPRecord prepared for display: entity-decoded name,
// formatted price and size. Date and GMP columns stay raw; the UI renders
// those as the provider wrote them.
type ViewRow struct {
	Name             string `json:"name"`
	PriceDisplay     string `json:"price"`
	GMP              string `json:"gmp"`
	EstimatedListing string `json:"est_listing"`
	SizeDisplay      string `json:"ipo_size"`
	Lot              string `json:"lot"`
	OpenDate         string `json:"open"`
	CloseDate        string `json:"close"`
	AllotmentDate    string `json:"boa_dt"`
	ListingDate      string `json:"listing"`
	GMPUpdated       string `json:"gmp_updated"`
	RowClass         string `json:"classname"`
}
