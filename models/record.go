package models

// GMPRecord is one row of the upstream grey-market premium feed, kept as
// the provider's raw text. Fields the provider omits or nulls decode to
// the empty string; parsing and formatting happen downstream so a bad
// value in one column never loses the rest of the row.
type GMPRecord struct {
	Name             string `json:"ipo"`
	Price            string `json:"price"`
	GMP              string `json:"gmp"`
	EstimatedListing string `json:"est_listing"`
	Size             string `json:"ipo_size"`
	Lot              string `json:"lot"`
	OpenDate         string `json:"open"`
	CloseDate        string `json:"close"`
	AllotmentDate    string `json:"boa_dt"`
	ListingDate      string `json:"listing"`
	GMPUpdated       string `json:"gmp_updated"`
	RowClass         string `json:"classname"`
}

// FeedEnvelope is the top-level JSON shape the feed endpoint serves.
type FeedEnvelope struct {
	Data []GMPRecord `json:"data"`
}
