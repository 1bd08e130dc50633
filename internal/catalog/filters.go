package catalog

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// Query parameter names used by SearchFilters
const (
	ParamKeyword  = "keyword"
	ParamLocation = "location"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamMinYear  = "minYear"
	ParamMaxYear  = "maxYear"
	ParamBodyType = "bodyType"
)

// SearchFilters is the state of the listing search form. Zero values are unset,
// so an explicit 0 bound such as minPrice=0 or maxYear=0 is the same as leaving it blank.
type SearchFilters struct {
	Keyword  string `json:"keyword,omitempty"`
	Location string `json:"location,omitempty"`
	MinPrice int    `json:"minPrice,omitempty"`
	MaxPrice int    `json:"maxPrice,omitempty"`
	MinYear  int    `json:"minYear,omitempty"`
	MaxYear  int    `json:"maxYear,omitempty"`
	BodyType string `json:"bodyType,omitempty"`
}

// Values returns every set field as url values
func (f SearchFilters) Values() url.Values {
	v := url.Values{}

	setString := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			v.Set(key, value)
		}
	}
	setInt := func(key string, value int) {
		if value != 0 {
			v.Set(key, strconv.Itoa(value))
		}
	}

	setString(ParamKeyword, f.Keyword)
	setString(ParamLocation, f.Location)
	setInt(ParamMinPrice, f.MinPrice)
	setInt(ParamMaxPrice, f.MaxPrice)
	setInt(ParamMinYear, f.MinYear)
	setInt(ParamMaxYear, f.MaxYear)
	setString(ParamBodyType, f.BodyType)

	return v
}

// IsEmpty reports whether no filter is set
func (f SearchFilters) IsEmpty() bool {
	return len(f.Values()) == 0
}

// Validate rejects negative bounds and inverted ranges
func (f SearchFilters) Validate() error {
	for _, b := range []struct {
		name  string
		value int
	}{
		{ParamMinPrice, f.MinPrice},
		{ParamMaxPrice, f.MaxPrice},
		{ParamMinYear, f.MinYear},
		{ParamMaxYear, f.MaxYear},
	} {
		if b.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, b.name)
		}
	}

	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return fmt.Errorf("%w: minPrice %d is above maxPrice %d", ErrInvalidArgument, f.MinPrice, f.MaxPrice)
	}
	if f.MaxYear > 0 && f.MinYear > f.MaxYear {
		return fmt.Errorf("%w: minYear %d is above maxYear %d", ErrInvalidArgument, f.MinYear, f.MaxYear)
	}

	return nil
}

// BuildSearchQuery encodes the set filters as a query string with keys in sorted order.
// Unset and blank fields are omitted, so an empty filter yields "".
func BuildSearchQuery(f SearchFilters) string {
	// Encode sorts by key
	return f.Values().Encode()
}

// ParseSearchFilters reads filters from query parameters. Unknown keys are ignored.
func ParseSearchFilters(values url.Values) (SearchFilters, error) {
	f := SearchFilters{
		Keyword:  strings.TrimSpace(values.Get(ParamKeyword)),
		Location: strings.TrimSpace(values.Get(ParamLocation)),
		BodyType: strings.TrimSpace(values.Get(ParamBodyType)),
	}

	for _, field := range []struct {
		key string
		dst *int
	}{
		{ParamMinPrice, &f.MinPrice},
		{ParamMaxPrice, &f.MaxPrice},
		{ParamMinYear, &f.MinYear},
		{ParamMaxYear, &f.MaxYear},
	} {
		raw := strings.TrimSpace(values.Get(field.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return SearchFilters{}, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidArgument, field.key, raw)
		}
		*field.dst = n
	}

	if err := f.Validate(); err != nil {
		return SearchFilters{}, err
	}
	return f, nil
}

// ApplySearchFilters returns the cars matching every set filter, in input order.
// Bounds are inclusive.
func ApplySearchFilters(cars []models.Car, f SearchFilters) ([]models.Car, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	location := strings.ToLower(strings.TrimSpace(f.Location))
	bodyType := strings.TrimSpace(f.BodyType)

	return filter(cars, func(c *models.Car) bool {
		if keyword != "" && !matchesTerm(c, keyword) {
			return false
		}
		if location != "" && !strings.Contains(strings.ToLower(c.DealerLocation), location) {
			return false
		}
		if !inRange(c.Price, f.MinPrice, f.MaxPrice) || !inRange(c.Year, f.MinYear, f.MaxYear) {
			return false
		}
		if bodyType != "" && !strings.EqualFold(c.BodyType, bodyType) {
			return false
		}
		return true
	}), nil
}

// IntRange is an inclusive bound; zero Min or Max leaves that side open
type IntRange struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// Contains reports whether n lies within the range
func (r IntRange) Contains(n int) bool {
	return inRange(n, r.Min, r.Max)
}

// CarFilter is the facet panel of the listings page. Empty selections match everything.
type CarFilter struct {
	Price         IntRange `json:"price"`
	Year          IntRange `json:"year"`
	Makes         []string `json:"makes,omitempty"`
	BodyTypes     []string `json:"bodyTypes,omitempty"`
	Transmissions []string `json:"transmissions,omitempty"`
	FuelTypes     []string `json:"fuelTypes,omitempty"`
	Locations     []string `json:"locations,omitempty"`
}

// FilterCars returns the cars matching every facet, in input order
func FilterCars(cars []models.Car, f CarFilter) []models.Car {
	return filter(cars, func(c *models.Car) bool {
		return f.Price.Contains(c.Price) &&
			f.Year.Contains(c.Year) &&
			selected(f.Makes, c.Make) &&
			selected(f.BodyTypes, c.BodyType) &&
			selected(f.Transmissions, c.Transmission) &&
			selected(f.FuelTypes, c.FuelType) &&
			selected(f.Locations, c.DealerLocation)
	})
}

func selected(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	return slices.ContainsFunc(options, func(o string) bool {
		return strings.EqualFold(o, value)
	})
}

func inRange(n, lo, hi int) bool {
	if lo > 0 && n < lo {
		return false
	}
	if hi > 0 && n > hi {
		return false
	}
	return true
}
