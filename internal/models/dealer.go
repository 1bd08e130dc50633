package models

// Dealer represents a dealership that owns car listings
type Dealer struct {
	ID              string  `json:"id"` // "dealer-3"
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	City            string  `json:"city"`
	Description     string  `json:"description"`
	Rating          float64 `json:"rating"` // 3.0 - 5.0, one decimal
	Logo            string  `json:"logo"`
	EstablishedYear int     `json:"establishedYear"`
}
