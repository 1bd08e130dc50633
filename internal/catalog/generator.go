package catalog

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// Generation constants
const (
	DealerCount   = 10
	CarsPerDealer = 10
	SoldCarCount  = 30 // transactions are created for the first N cars

	MinFeatures = 3
	MaxFeatures = 7

	MinYear    = 2003
	MaxYear    = 2023
	MinPrice   = 10000
	MaxPrice   = 60000
	MinMileage = 5000
	MaxMileage = 105000

	MinRating = 3.0
	MaxRating = 5.0

	ImagesPerCar      = 3
	ListingWindowDays = 30
	SaleWindowDays    = 180
)

const vinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces a catalog from an injected random source
type Generator struct {
	rng *rand.Rand
	ref *Reference
	now func() time.Time
}

// Option configures the generator
type Option func(*Generator)

// WithReference sets the reference data to sample from
func WithReference(ref *Reference) Option {
	return func(g *Generator) {
		if ref != nil {
			g.ref = ref
		}
	}
}

// WithClock sets the time source used for listing and sale dates
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a generator. A nil rng falls back to an unseeded source.
// Reference data passed with WithReference is validated here.
func NewGenerator(rng *rand.Rand, opts ...Option) (*Generator, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Generator{
		rng: rng,
		ref: DefaultReference(),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if err := g.ref.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog reference: %w", err)
	}

	return g, nil
}

// NewSeededRand returns a deterministic random source for the given seed
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds dealers, then their cars, then transactions for the first SoldCarCount cars
func (g *Generator) Generate() *Catalog {
	now := g.now().UTC()

	dealers := make([]models.Dealer, 0, DealerCount)
	for i := 0; i < DealerCount; i++ {
		dealers = append(dealers, g.dealer(i))
	}

	cars := make([]models.Car, 0, DealerCount*CarsPerDealer)
	for _, d := range dealers {
		for i := 0; i < CarsPerDealer; i++ {
			cars = append(cars, g.car(len(cars)+1, d, now))
		}
	}

	sold := min(SoldCarCount, len(cars))
	transactions := make([]models.Transaction, 0, sold)
	for i := 0; i < sold; i++ {
		transactions = append(transactions, g.transaction(i+1, cars[i], now))
	}

	return build(dealers, cars, transactions, now)
}

func (g *Generator) dealer(index int) models.Dealer {
	ref := g.ref.Dealers
	return models.Dealer{
		ID:              fmt.Sprintf("dealer-%d", index+1),
		Name:            ref.NamePrefixes[index] + " " + ref.NameSuffix,
		Email:           fmt.Sprintf("dealer%d@example.com", index+1),
		Phone:           g.phone(),
		Address:         fmt.Sprintf("%d %s St", g.rng.IntN(9000)+1000, ref.Streets[index]),
		City:            ref.Cities[index],
		Description:     ref.Description,
		Rating:          math.Round((g.rng.Float64()*(MaxRating-MinRating)+MinRating)*10) / 10,
		Logo:            ref.Logo,
		EstablishedYear: g.rng.IntN(30) + 1990,
	}
}

func (g *Generator) car(seq int, dealer models.Dealer, now time.Time) models.Car {
	mm := pick(g.rng, g.ref.Makes)
	model := pick(g.rng, mm.Models)
	year := g.rng.IntN(MaxYear-MinYear+1) + MinYear
	price := g.rng.IntN(MaxPrice-MinPrice+1) + MinPrice
	mileage := g.rng.IntN(MaxMileage-MinMileage+1) + MinMileage

	transmission := models.TransmissionManual
	if g.rng.Float64() > 0.3 {
		transmission = models.TransmissionAutomatic
	}

	images := make([]string, ImagesPerCar)
	for i := range images {
		images[i] = pick(g.rng, g.ref.ImageURLs)
	}

	return models.Car{
		ID:             fmt.Sprintf("car-%d", seq),
		DealerID:       dealer.ID,
		DealerName:     dealer.Name,
		DealerLocation: dealer.City,
		Make:           mm.Make,
		Model:          model,
		Year:           year,
		Price:          price,
		Mileage:        mileage,
		Transmission:   transmission,
		FuelType:       pick(g.rng, g.ref.FuelTypes),
		BodyType:       pick(g.rng, g.ref.BodyTypes),
		Color:          pick(g.rng, g.ref.Colors),
		EngineSize:     fmt.Sprintf("%.1fL", g.rng.Float64()*4+1),
		Doors:          pick(g.rng, g.ref.DoorCounts),
		Features:       g.features(),
		Condition:      pick(g.rng, g.ref.Conditions),
		Description:    g.description(year, mm.Make, model, mileage),
		Images:         images,
		MainImage:      pick(g.rng, g.ref.ImageURLs),
		ListingDate:    daysAgo(now, g.rng.IntN(ListingWindowDays)),
		PreviousOwners: g.rng.IntN(3) + 1,
		VIN:            g.vin(),
		IsFeatured:     g.rng.Float64() > 0.8,
	}
}

func (g *Generator) transaction(seq int, car models.Car, now time.Time) models.Transaction {
	ref := g.ref.Transactions

	// 90-100% of the listing price, never above it
	salePrice := int(math.Round(float64(car.Price) * (0.9 + g.rng.Float64()*0.1)))
	if salePrice > car.Price {
		salePrice = car.Price
	}

	return models.Transaction{
		ID:    fmt.Sprintf("transaction-%d", seq),
		CarID: car.ID,
		CarDetails: models.CarDetails{
			Make:  car.Make,
			Model: car.Model,
			Year:  car.Year,
			Price: car.Price,
		},
		DealerID:        car.DealerID,
		DealerName:      car.DealerName,
		BuyerName:       pick(g.rng, ref.BuyerNames),
		BuyerEmail:      fmt.Sprintf("buyer%d@example.com", seq),
		BuyerPhone:      g.phone(),
		SalePrice:       salePrice,
		TransactionDate: daysAgo(now, g.rng.IntN(SaleWindowDays)),
		PaymentMethod:   pick(g.rng, ref.PaymentMethods),
		Status:          models.TransactionStatus(pick(g.rng, ref.Statuses)),
	}
}

// features draws MinFeatures..MaxFeatures distinct tags with a partial Fisher-Yates shuffle
func (g *Generator) features() []string {
	pool := clone(g.ref.Features)
	n := g.rng.IntN(MaxFeatures-MinFeatures+1) + MinFeatures

	for i := 0; i < n; i++ {
		j := i + g.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:n:n]
}

func (g *Generator) description(year int, makeName, model string, mileage int) string {
	words := g.ref.Descriptions
	return fmt.Sprintf("This %d %s %s is in %s condition with %s miles. It features a %s engine and %s interior. Perfect for %s.",
		year, makeName, model,
		pick(g.rng, words.ConditionWords),
		groupThousands(mileage),
		pick(g.rng, words.EngineWords),
		pick(g.rng, words.InteriorWords),
		pick(g.rng, words.Audiences),
	)
}

func (g *Generator) phone() string {
	return fmt.Sprintf("(%d) %d-%d", g.rng.IntN(900)+100, g.rng.IntN(900)+100, g.rng.IntN(9000)+1000)
}

func (g *Generator) vin() string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteByte(vinAlphabet[g.rng.IntN(len(vinAlphabet))])
	}
	b.WriteString(strconv.Itoa(g.rng.IntN(10000)))
	return b.String()
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func daysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// groupThousands formats 105000 as "105,000"
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
