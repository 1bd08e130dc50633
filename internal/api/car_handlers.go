package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/car-marketplace/internal/catalog"
)

// Facet params accepted alongside the search filters; each may repeat
const (
	paramMake         = "make"
	paramTransmission = "transmission"
	paramFuelType     = "fuelType"
)

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters, err := catalog.ParseSearchFilters(query)
	if err != nil {
		respondInvalidArgument(w, err)
		return
	}

	page, size, err := pageParams(r, defaultCarsPageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	cars := s.catalog.Cars()
	if !filters.IsEmpty() {
		if cars, err = catalog.ApplySearchFilters(cars, filters); err != nil {
			respondInvalidArgument(w, err)
			return
		}
	}

	cars = catalog.FilterCars(cars, catalog.CarFilter{
		Makes:         query[paramMake],
		Transmissions: query[paramTransmission],
		FuelTypes:     query[paramFuelType],
	})

	result, err := catalog.Paginate(cars, size, page)
	if err != nil {
		respondInvalidArgument(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeaturedCars(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r, s.featuredPageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := catalog.Paginate(catalog.FilterFeatured(s.catalog.Cars()), size, page)
	if err != nil {
		respondInvalidArgument(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	car, ok := s.catalog.CarByID(id)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "car not found")
		return
	}

	respondJSON(w, http.StatusOK, car)
}

func (s *Server) handleBuildSearchQuery(w http.ResponseWriter, r *http.Request) {
	var filters catalog.SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := filters.Validate(); err != nil {
		respondInvalidArgument(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"query": catalog.BuildSearchQuery(filters),
	})
}
