package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/car-marketplace/internal/models"
)

func TestFilterCarsByOwner(t *testing.T) {
	cars := generateSeeded(t, 3).Cars()

	owned := FilterCarsByOwner(cars, "dealer-3")
	require.Len(t, owned, CarsPerDealer)
	for _, car := range owned {
		assert.Equal(t, "dealer-3", car.DealerID)
	}
	// relative order is kept
	for i := 1; i < len(owned); i++ {
		assert.Less(t, indexOfCar(cars, owned[i-1].ID), indexOfCar(cars, owned[i].ID))
	}

	none := FilterCarsByOwner(cars, "dealer-404")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Empty(t, FilterCarsByOwner(nil, "dealer-1"))
}

func TestSearchCars_BlankTermIsIdentity(t *testing.T) {
	cars := generateSeeded(t, 11).Cars()

	assert.Equal(t, cars, SearchCars(cars, ""))
	assert.Equal(t, cars, SearchCars(cars, "   "))
}

func TestSearchCars_CaseInsensitive(t *testing.T) {
	cars := generateSeeded(t, 11).Cars()

	upper := SearchCars(cars, "TOYOTA")
	lower := SearchCars(cars, "toyota")
	assert.Equal(t, lower, upper)

	for _, car := range lower {
		assert.True(t, matchesTerm(&car, "toyota"))
	}
}

func TestSearchCars_MatchesDealerFields(t *testing.T) {
	cars := []models.Car{
		{ID: "car-1", Make: "Ford", Model: "Edge", DealerName: "Royal Auto Mall", DealerLocation: "Dallas, TX"},
		{ID: "car-2", Make: "Kia", Model: "Soul", DealerName: "City Auto Mall", DealerLocation: "Chicago, IL"},
	}

	assert.Equal(t, []models.Car{cars[0]}, SearchCars(cars, "royal"))
	assert.Equal(t, []models.Car{cars[1]}, SearchCars(cars, "chicago"))
	assert.Equal(t, []models.Car{cars[1]}, SearchCars(cars, "SOU"))
	assert.Empty(t, SearchCars(cars, "tesla"))
}

func TestSearchCars_DoesNotAlias(t *testing.T) {
	cars := []models.Car{{ID: "car-1", Make: "Audi"}}

	out := SearchCars(cars, "")
	out[0].Make = "Changed"
	assert.Equal(t, "Audi", cars[0].Make)
}

func TestFilterFeatured(t *testing.T) {
	cars := generateSeeded(t, 8).Cars()

	featured := FilterFeatured(cars)
	for _, car := range featured {
		assert.True(t, car.IsFeatured)
	}

	count := 0
	for _, car := range cars {
		if car.IsFeatured {
			count++
		}
	}
	assert.Len(t, featured, count)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name      string
		pageSize  int
		pageIndex int
		wantPage  int
		wantItems []int
	}{
		{"first page", 4, 0, 0, []int{1, 2, 3, 4}},
		{"partial last page", 4, 2, 2, []int{9, 10}},
		{"one before first wraps to last", 4, -1, 2, []int{9, 10}},
		{"one past last wraps to first", 4, 3, 0, []int{1, 2, 3, 4}},
		{"far negative", 4, -7, 2, []int{9, 10}},
		{"page larger than input", 20, 5, 0, items},
		{"max int page size", math.MaxInt, 0, 0, items},
		{"max int page size wraps", math.MaxInt, -1, 0, items},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(items, tt.pageSize, tt.pageIndex)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantItems, page.Items)
			assert.Equal(t, len(items), page.TotalItems)
		})
	}
}

func TestPaginate_WraparoundLaw(t *testing.T) {
	cars := generateSeeded(t, 21).Cars()

	first, err := Paginate(cars, 4, 0)
	require.NoError(t, err)

	before, err := Paginate(cars, 4, -1)
	require.NoError(t, err)
	last, err := Paginate(cars, 4, first.TotalPages-1)
	require.NoError(t, err)
	assert.Equal(t, last, before)

	after, err := Paginate(cars, 4, first.TotalPages)
	require.NoError(t, err)
	assert.Equal(t, first, after)
}

func TestPaginate_HugePageSize(t *testing.T) {
	for _, size := range []int{math.MaxInt, math.MaxInt - 1, math.MaxInt / 2} {
		page, err := Paginate([]int{1, 2, 3, 4, 5}, size, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, page.Items)
	}
}

func TestPaginate_InvalidPageSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Paginate([]int{1, 2, 3}, size, 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestPaginate_Empty(t *testing.T) {
	page, err := Paginate([]models.Car{}, 4, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestSortDealersByRating(t *testing.T) {
	dealers := generateSeeded(t, 17).Dealers()

	top := SortDealersByRating(dealers, 3)
	require.Len(t, top, 3)

	chosen := map[string]bool{}
	for _, d := range top {
		chosen[d.ID] = true
	}
	for _, d := range dealers {
		if chosen[d.ID] {
			continue
		}
		for _, best := range top {
			assert.GreaterOrEqual(t, best.Rating, d.Rating)
		}
	}

	assert.Len(t, SortDealersByRating(dealers, 50), len(dealers))
	assert.Empty(t, SortDealersByRating(dealers, 0))
}

func TestSortDealersByRating_StableTies(t *testing.T) {
	dealers := []models.Dealer{
		{ID: "a", Rating: 4.0},
		{ID: "b", Rating: 4.5},
		{ID: "c", Rating: 4.0},
		{ID: "d", Rating: 4.5},
	}

	sorted := SortDealersByRating(dealers, len(dealers))
	ids := make([]string, len(sorted))
	for i, d := range sorted {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)

	// input untouched
	assert.Equal(t, "a", dealers[0].ID)
}

func TestFilterTransactionsByDealer(t *testing.T) {
	c := generateSeeded(t, 4)

	sales := FilterTransactionsByDealer(c.Transactions(), "dealer-1")
	// the first 30 cars belong to dealers 1-3
	assert.Len(t, sales, CarsPerDealer)
	for _, tx := range sales {
		assert.Equal(t, "dealer-1", tx.DealerID)
	}

	assert.Empty(t, FilterTransactionsByDealer(c.Transactions(), "dealer-10"))
}

func TestSeededScenario(t *testing.T) {
	c := generateSeeded(t, 1)
	metro, ok := c.DealerByID("dealer-4")
	require.True(t, ok)
	require.Equal(t, "Metro Auto Mall", metro.Name)

	corolla := models.Car{
		ID:             "car-corolla",
		DealerID:       metro.ID,
		DealerName:     metro.Name,
		DealerLocation: metro.City,
		Make:           "Toyota",
		Model:          "Corolla",
		Year:           2010,
		Price:          15000,
	}
	require.Equal(t, "2010 Toyota Corolla", corolla.Title())

	cars := append(c.Cars(), corolla)

	found := SearchCars(cars, "corolla")
	assert.Contains(t, found, corolla)

	for _, car := range FilterCarsByOwner(cars, "dealer-3") {
		assert.Equal(t, "dealer-3", car.DealerID)
	}

	page, err := Paginate(FilterFeatured(cars), 4, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Items), 4)
	for _, car := range page.Items {
		assert.True(t, car.IsFeatured)
	}
}

func indexOfCar(cars []models.Car, id string) int {
	for i := range cars {
		if cars[i].ID == id {
			return i
		}
	}
	return -1
}
