package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kitchen-assistant/internal/kitchen"
)

type ingredientView struct {
	kitchen.Ingredient
	ExpiryStatus    kitchen.ExpiryStatus `json:"expiry_status"`
	DaysUntilExpiry *int                 `json:"days_until_expiry,omitempty"`
}

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.FetchIngredients(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	list := kitchen.FilterIngredients(store.Ingredients(), kitchen.IngredientFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   kitchen.IngredientSort(q.Get("sort")),
	})

	now := s.now()
	views := make([]ingredientView, 0, len(list))
	for _, ing := range list {
		v := ingredientView{Ingredient: ing, ExpiryStatus: kitchen.ExpiryStatusOf(ing.ExpiryDate, now)}
		if ing.ExpiryDate != nil {
			days := kitchen.DaysUntil(*ing.ExpiryDate, now)
			v.DaysUntilExpiry = &days
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) {
	var in kitchen.NewIngredient
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if in.Quantity < 0 {
		writeBadRequest(w, "quantity must not be negative")
		return
	}

	ing, err := s.store(r).AddIngredient(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ing)
}

func (s *Server) updateIngredient(w http.ResponseWriter, r *http.Request) {
	var upd kitchen.IngredientUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		writeBadRequest(w, "name must not be empty")
		return
	}
	upd.UpdatedAt = nil

	ing, err := s.store(r).UpdateIngredient(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

func (s *Server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteIngredient(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
