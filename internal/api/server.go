package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"kitchen-assistant/internal/auth"
	"kitchen-assistant/internal/clipper"
	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/metrics"
	"kitchen-assistant/internal/recipe"
)

// Config carries the collaborators of the HTTP API.
type Config struct {
	Sessions       *kitchen.Sessions
	Verifier       *auth.Verifier
	Chef           *recipe.Chef
	Clipper        *clipper.Clipper
	Usage          kitchen.UsageRecorder
	InventoryLimit int
	DataPath       string
	Now            func() time.Time
}

// Server exposes the kitchen over JSON HTTP.
type Server struct {
	router         *chi.Mux
	sessions       *kitchen.Sessions
	chef           *recipe.Chef
	clipper        *clipper.Clipper
	usage          kitchen.UsageRecorder
	inventoryLimit int
	dataPath       string
	now            func() time.Time
}

// New builds the router. Everything under /api requires a bearer token.
func New(cfg Config) *Server {
	s := &Server{
		sessions:       cfg.Sessions,
		chef:           cfg.Chef,
		clipper:        cfg.Clipper,
		usage:          cfg.Usage,
		inventoryLimit: cfg.InventoryLimit,
		dataPath:       cfg.DataPath,
		now:            cfg.Now,
	}
	if s.inventoryLimit <= 0 {
		s.inventoryLimit = kitchen.DefaultInventoryLimit
	}
	if s.now == nil {
		s.now = time.Now
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", s.health)

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireUser(cfg.Verifier))

		r.Get("/reference", s.reference)
		r.Get("/dashboard", s.dashboard)

		r.Get("/ingredients", s.listIngredients)
		r.Post("/ingredients", s.createIngredient)
		r.Patch("/ingredients/{id}", s.updateIngredient)
		r.Delete("/ingredients/{id}", s.deleteIngredient)

		r.Get("/recipes", s.listRecipes)
		r.Post("/recipes", s.createRecipe)
		r.Post("/recipes/generate", s.generateRecipe)
		r.Post("/recipes/generated", s.saveGeneratedRecipe)
		r.Post("/recipes/import", s.importRecipe)
		r.Delete("/recipes/{id}", s.deleteRecipe)

		r.Post("/tips", s.tips)
		r.Post("/substitutions", s.substitutions)

		r.Get("/meal-plans", s.listMealPlans)
		r.Get("/meal-plans/week", s.mealPlanWeek)
		r.Get("/meal-plans/week/shopping", s.shoppingList)
		r.Post("/meal-plans", s.createMealPlan)
		r.Delete("/meal-plans/{id}", s.deleteMealPlan)

		r.Get("/chat", s.chatHistory)
		r.Post("/chat", s.sendChat)
		r.Post("/chat/sessions", s.newChatSession)
		r.Delete("/chat", s.clearChat)
	})

	s.router = router
	return s
}

// Router returns the underlying router so other transports, such as the
// Telegram webhook, can be mounted next to the API.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"system": metrics.GetSysHealth(s.dataPath),
	})
}

func (s *Server) reference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":   kitchen.Categories,
		"units":        kitchen.Units,
		"meal_types":   kitchen.MealTypes,
		"difficulties": kitchen.Difficulties,
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kitchen.Summarize(store.Snapshot(), s.now()))
}

// store returns the signed-in user's Store.
func (s *Server) store(r *http.Request) *kitchen.Store {
	user, _ := auth.UserFromContext(r.Context())
	return s.sessions.For(user, auth.TokenFromContext(r.Context()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

// writeError maps domain and generator errors onto HTTP statuses. Generator
// failures carry the same user-facing text the chat shows.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, kitchen.ErrNotLoggedIn):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, kitchen.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, kitchen.ErrEmptyMessage), errors.Is(err, recipe.ErrNoIngredients):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, kitchen.ErrSessionChanged):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, clipper.ErrNoRecipe):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, llm.ErrRateLimited):
		status, message = http.StatusTooManyRequests, llm.UserMessage(err)
	case isGeneratorError(err):
		status, message = http.StatusBadGateway, llm.UserMessage(err)
	default:
		log.Printf("Error handling request: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func isGeneratorError(err error) bool {
	var apiErr *llm.APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, llm.ErrNoCandidates) ||
		errors.Is(err, llm.ErrEmptyResponse)
}
