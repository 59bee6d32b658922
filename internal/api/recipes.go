package api

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
)

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.FetchRecipes(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	writeJSON(w, http.StatusOK, kitchen.FilterRecipes(store.Recipes(), kitchen.RecipeFilter{
		Search:     q.Get("search"),
		Difficulty: q.Get("difficulty"),
		Cuisine:    q.Get("cuisine"),
	}))
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in kitchen.NewRecipe
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}

	rec, err := s.store(r).AddRecipe(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generateRecipe asks the chef for a recipe. Without explicit ingredients
// the first items of the inventory are used.
func (s *Server) generateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipe.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	store := s.store(r)
	if len(req.Ingredients) == 0 {
		if err := store.FetchIngredients(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		req.Ingredients = kitchen.IngredientNames(store.Ingredients(), s.inventoryLimit)
	}

	result, meta, err := s.chef.GenerateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.record(r.Context(), meta)

	rec := result.Recipe
	store.SetCurrentRecipe(&rec)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) saveGeneratedRecipe(w http.ResponseWriter, r *http.Request) {
	var g recipe.GeneratedRecipe
	if !decodeJSON(w, r, &g) {
		return
	}
	if strings.TrimSpace(g.Title) == "" {
		writeBadRequest(w, "title is required")
		return
	}

	rec, err := s.store(r).SaveGeneratedRecipe(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type importRequest struct {
	URL  string `json:"url"`
	Save bool   `json:"save"`
}

type importResponse struct {
	Recipe     recipe.GeneratedRecipe `json:"recipe"`
	Confidence recipe.Confidence      `json:"confidence"`
	SourceURL  string                 `json:"source_url"`
	FromMarkup bool                   `json:"from_markup"`
	Saved      *kitchen.Recipe        `json:"saved,omitempty"`
}

func (s *Server) importRecipe(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeBadRequest(w, "a http(s) url is required")
		return
	}

	clip, err := s.clipper.ClipURL(r.Context(), u.String())
	if err != nil {
		writeError(w, err)
		return
	}
	s.record(r.Context(), clip.Meta)

	resp := importResponse{
		Recipe:     clip.Recipe,
		Confidence: clip.Confidence,
		SourceURL:  clip.SourceURL,
		FromMarkup: clip.FromMarkup,
	}
	store := s.store(r)
	if req.Save {
		saved, err := store.SaveGeneratedRecipe(r.Context(), clip.Recipe)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Saved = &saved
	} else {
		rec := clip.Recipe
		store.SetCurrentRecipe(&rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

type tipsRequest struct {
	Recipe string `json:"recipe"`
}

// tips falls back to the last generated recipe when none is given.
func (s *Server) tips(w http.ResponseWriter, r *http.Request) {
	var req tipsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Recipe)
	if text == "" {
		current, ok := s.store(r).CurrentRecipe()
		if !ok {
			writeBadRequest(w, "recipe is required")
			return
		}
		text = current.Text()
	}

	tips, meta, err := s.chef.CookingTips(r.Context(), text)
	if err != nil {
		writeError(w, err)
		return
	}
	s.record(r.Context(), meta)
	writeJSON(w, http.StatusOK, map[string][]string{"tips": tips})
}

type substitutionsRequest struct {
	Ingredient string `json:"ingredient"`
}

func (s *Server) substitutions(w http.ResponseWriter, r *http.Request) {
	var req substitutionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ingredient := strings.TrimSpace(req.Ingredient)
	if ingredient == "" {
		writeBadRequest(w, "ingredient is required")
		return
	}

	subs, meta, err := s.chef.Substitutions(r.Context(), ingredient)
	if err != nil {
		writeError(w, err)
		return
	}
	s.record(r.Context(), meta)
	writeJSON(w, http.StatusOK, map[string][]string{"substitutions": subs})
}

func (s *Server) record(ctx context.Context, meta shared.AgentMeta) {
	if s.usage == nil || meta.AgentName == "" {
		return
	}
	if err := s.usage.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record usage for %s: %v", meta.AgentName, err)
	}
}
