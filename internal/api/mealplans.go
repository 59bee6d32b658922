package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/shopping"
)

func (s *Server) listMealPlans(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.FetchMealPlans(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.MealPlans())
}

// weekOf reads ?date, defaulting to today. It writes the error response
// and returns false on a malformed date.
func (s *Server) weekOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.now(), true
	}
	d, err := kitchen.ParseDate(raw)
	if err != nil {
		writeBadRequest(w, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d.Time, true
}

// mealPlanWeek returns the Monday-based week containing ?date, or the
// current week.
func (s *Server) mealPlanWeek(w http.ResponseWriter, r *http.Request) {
	day, ok := s.weekOf(w, r)
	if !ok {
		return
	}

	store := s.store(r)
	if err := store.FetchMealPlans(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kitchen.MealsForWeek(store.MealPlans(), day))
}

// shoppingList returns what to buy for the recipes planned in the week.
func (s *Server) shoppingList(w http.ResponseWriter, r *http.Request) {
	day, ok := s.weekOf(w, r)
	if !ok {
		return
	}

	store := s.store(r)
	ctx := r.Context()
	for _, fetch := range []func(context.Context) error{store.FetchMealPlans, store.FetchRecipes, store.FetchIngredients} {
		if err := fetch(ctx); err != nil {
			writeError(w, err)
			return
		}
	}

	week := kitchen.MealsForWeek(store.MealPlans(), day)
	writeJSON(w, http.StatusOK, shopping.ForWeek(week, store.Recipes(), store.Ingredients()))
}

func (s *Server) createMealPlan(w http.ResponseWriter, r *http.Request) {
	var in kitchen.NewMealPlan
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Date.IsZero() {
		writeBadRequest(w, "date is required")
		return
	}
	if !slices.Contains(kitchen.MealTypes, in.MealType) {
		writeBadRequest(w, "meal_type must be breakfast, lunch or dinner")
		return
	}

	entry, err := s.store(r).AddMealPlan(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) deleteMealPlan(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteMealPlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
