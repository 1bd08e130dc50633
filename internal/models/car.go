package models

import (
	"strconv"
	"time"
)

// Transmission values
const (
	TransmissionAutomatic = "Automatic"
	TransmissionManual    = "Manual"
)

// Car represents a listing offered by a dealer.
// DealerName and DealerLocation are copied from the dealer when the car is generated
// and are not kept in sync afterwards.
type Car struct {
	ID             string    `json:"id"` // "car-17"
	DealerID       string    `json:"dealerId"`
	DealerName     string    `json:"dealerName"`
	DealerLocation string    `json:"dealerLocation"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	Price          int       `json:"price"`
	Mileage        int       `json:"mileage"`
	Transmission   string    `json:"transmission"`
	FuelType       string    `json:"fuelType"`
	BodyType       string    `json:"bodyType"`
	Color          string    `json:"color"`
	EngineSize     string    `json:"engineSize"`
	Doors          int       `json:"doors"`
	Features       []string  `json:"features"`
	Condition      string    `json:"condition"`
	Description    string    `json:"description"`
	Images         []string  `json:"images"`
	MainImage      string    `json:"mainImage"`
	ListingDate    time.Time `json:"listingDate"`
	PreviousOwners int       `json:"previousOwners"`
	VIN            string    `json:"vin"`
	IsFeatured     bool      `json:"isFeatured"`
}

// Title returns the display title, e.g. "2010 Toyota Corolla"
func (c *Car) Title() string {
	return strconv.Itoa(c.Year) + " " + c.Make + " " + c.Model
}
