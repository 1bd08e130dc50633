package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/car-marketplace/internal/catalog"
)

func (s *Server) handleListDealers(w http.ResponseWriter, r *http.Request) {
	dealers := s.catalog.Dealers()

	if r.URL.Query().Has("top") {
		top, err := queryInt(r, "top", 0)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		dealers = catalog.SortDealersByRating(dealers, top)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dealers": dealers,
		"total":   len(dealers),
	})
}

func (s *Server) handleGetDealer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dealer, ok := s.catalog.DealerByID(id)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "dealer not found")
		return
	}

	respondJSON(w, http.StatusOK, dealer)
}

func (s *Server) handleDealerCars(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := s.catalog.DealerByID(id); !ok {
		respondError(w, http.StatusNotFound, "not_found", "dealer not found")
		return
	}

	cars := catalog.SearchCars(catalog.FilterCarsByOwner(s.catalog.Cars(), id), r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cars":  cars,
		"total": len(cars),
	})
}

// Dealer dashboard handlers. An account with no linked catalog dealer sees an empty inventory.

func (s *Server) handleMyInventory(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	cars := catalog.SearchCars(catalog.FilterCarsByOwner(s.catalog.Cars(), user.DealerID), r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dealer_id": user.DealerID,
		"cars":      cars,
		"total":     len(cars),
	})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	period, err := catalog.ParseStatsPeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondInvalidArgument(w, err)
		return
	}

	stats, err := catalog.ComputeDealerStats(s.catalog.Cars(), s.catalog.Transactions(), user.DealerID, period, s.now().UTC())
	if err != nil {
		respondInvalidArgument(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
