package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"kitchen-assistant/internal/auth"
	"kitchen-assistant/internal/clipper"
	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/metrics"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
	"kitchen-assistant/internal/shopping"
	"kitchen-assistant/internal/testutil"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (g *stubGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return llm.ContentResponse{}, g.err
	}
	return llm.ContentResponse{
		Content: g.response,
		Usage:   shared.TokenUsage{PromptTokens: 20, CompletionTokens: 10, Model: "stub"},
	}, nil
}

func (g *stubGenerator) set(response string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.response, g.err = response, err
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type testServer struct {
	srv     *Server
	gen     *stubGenerator
	usage   *metrics.Store
	token   string
	other   string
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	repo := kitchen.NewSQLRepository(db)
	sessions := kitchen.NewSessions(func(u kitchen.User, token string) kitchen.RemoteStore { return repo })
	verifier := auth.NewVerifier("test-secret")
	gen := &stubGenerator{}
	usage := metrics.NewStore(db)

	srv := New(Config{
		Sessions: sessions,
		Verifier: verifier,
		Chef:     recipe.NewChef(gen, nil),
		Clipper:  clipper.NewClipper(gen),
		Usage:    usage,
		DataPath: t.TempDir(),
		Now:      func() time.Time { return testNow },
	})

	token, err := verifier.Issue(kitchen.User{ID: "user-1", Email: "cook@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Expected no error issuing token, got %v", err)
	}
	other, _ := verifier.Issue(kitchen.User{ID: "user-2"}, time.Hour)

	return &testServer{srv: srv, gen: gen, usage: usage, token: token, other: other, handler: srv}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doAs(t, ts.token, method, path, body)
}

func (ts *testServer) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doAs(t, "", http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)

	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if _, ok := body["system"].(map[string]any)["goroutines"]; !ok {
		t.Errorf("Expected system health in body, got %v", body)
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.doAs(t, "", http.MethodGet, "/api/ingredients", nil), http.StatusUnauthorized)
	expectStatus(t, ts.doAs(t, "garbage", http.MethodGet, "/api/dashboard", nil), http.StatusUnauthorized)
}

func TestReference(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/reference", nil)
	expectStatus(t, rec, http.StatusOK)
	body := decode[map[string][]string](t, rec)
	if len(body["categories"]) != len(kitchen.Categories) || len(body["meal_types"]) != 3 {
		t.Errorf("Unexpected reference data %v", body)
	}
}

type ingredientResponse struct {
	kitchen.Ingredient
	ExpiryStatus    kitchen.ExpiryStatus `json:"expiry_status"`
	DaysUntilExpiry *int                 `json:"days_until_expiry"`
}

func TestIngredients(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Validation", func(t *testing.T) {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", "{"), http.StatusBadRequest)
		expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "  "}), http.StatusBadRequest)
		expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "salt", "quantity": -1}), http.StatusBadRequest)
	})

	rec := ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{
		"name": "Milk", "quantity": 1, "unit": "liters", "category": "dairy", "expiry_date": "2024-05-02",
	})
	expectStatus(t, rec, http.StatusCreated)
	milk := decode[kitchen.Ingredient](t, rec)
	if milk.ID == "" || milk.UserID != "user-1" {
		t.Fatalf("Expected stored ingredient with id and owner, got %+v", milk)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{
		"name": "apples", "quantity": 6, "unit": "pieces", "category": "fruits",
	}), http.StatusCreated)

	rec = ts.do(t, http.MethodGet, "/api/ingredients?sort=name", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[[]ingredientResponse](t, rec)
	if len(list) != 2 || list[0].Name != "apples" || list[1].Name != "Milk" {
		t.Fatalf("Expected name-sorted inventory, got %+v", list)
	}
	if list[0].ExpiryStatus != kitchen.ExpiryNone || list[0].DaysUntilExpiry != nil {
		t.Errorf("Expected no expiry for apples, got %+v", list[0])
	}
	if list[1].ExpiryStatus != kitchen.ExpiryExpiring || list[1].DaysUntilExpiry == nil || *list[1].DaysUntilExpiry != 1 {
		t.Errorf("Expected milk expiring in 1 day, got %+v", list[1])
	}

	rec = ts.do(t, http.MethodGet, "/api/ingredients?category=dairy&search=MI", nil)
	if filtered := decode[[]ingredientResponse](t, rec); len(filtered) != 1 || filtered[0].ID != milk.ID {
		t.Errorf("Expected only milk for dairy filter, got %+v", filtered)
	}

	t.Run("Update", func(t *testing.T) {
		rec := ts.do(t, http.MethodPatch, "/api/ingredients/"+milk.ID, map[string]any{"quantity": 2.5})
		expectStatus(t, rec, http.StatusOK)
		updated := decode[kitchen.Ingredient](t, rec)
		if updated.Quantity != 2.5 || updated.Name != "Milk" {
			t.Errorf("Expected quantity update only, got %+v", updated)
		}

		expectStatus(t, ts.do(t, http.MethodPatch, "/api/ingredients/missing", map[string]any{"quantity": 1}), http.StatusNotFound)
		expectStatus(t, ts.do(t, http.MethodPatch, "/api/ingredients/"+milk.ID, map[string]any{"name": ""}), http.StatusBadRequest)
	})

	t.Run("OtherUserIsolated", func(t *testing.T) {
		rec := ts.doAs(t, ts.other, http.MethodGet, "/api/ingredients", nil)
		expectStatus(t, rec, http.StatusOK)
		if list := decode[[]ingredientResponse](t, rec); len(list) != 0 {
			t.Errorf("Expected other user to see nothing, got %+v", list)
		}
		expectStatus(t, ts.doAs(t, ts.other, http.MethodPatch, "/api/ingredients/"+milk.ID, map[string]any{"quantity": 9}), http.StatusNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		expectStatus(t, ts.do(t, http.MethodDelete, "/api/ingredients/"+milk.ID, nil), http.StatusNoContent)
		rec := ts.do(t, http.MethodGet, "/api/ingredients", nil)
		if list := decode[[]ingredientResponse](t, rec); len(list) != 1 || list[0].Name != "apples" {
			t.Errorf("Expected only apples left, got %+v", list)
		}
	})
}

const generatedJSON = `{"title":"Apple Crumble","description":"Warm dessert","ingredients":["apples","oats"],"instructions":["Bake"],"prepTime":10,"cookTime":35,"servings":6,"difficulty":"easy","cuisine":"British","tags":["dessert"]}`

func TestRecipes(t *testing.T) {
	ts := newTestServer(t)

	t.Run("GenerateWithoutInventory", func(t *testing.T) {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/recipes/generate", map[string]any{}), http.StatusBadRequest)
	})

	expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "apples", "quantity": 4}), http.StatusCreated)

	ts.gen.set("```json\n"+generatedJSON+"\n```", nil)
	rec := ts.do(t, http.MethodPost, "/api/recipes/generate", map[string]any{"mood": "cozy"})
	expectStatus(t, rec, http.StatusOK)
	result := decode[recipe.Interpretation](t, rec)
	if result.Recipe.Title != "Apple Crumble" || result.Confidence != recipe.Structured {
		t.Errorf("Unexpected generation result %+v", result)
	}
	if !strings.Contains(ts.gen.lastPrompt(), "using these ingredients: apples.") {
		t.Errorf("Expected inventory in prompt, got %s", ts.gen.lastPrompt())
	}

	rec = ts.do(t, http.MethodPost, "/api/recipes/generated", result.Recipe)
	expectStatus(t, rec, http.StatusCreated)
	if saved := decode[kitchen.Recipe](t, rec); saved.ID == "" || saved.CookTime != 35 {
		t.Errorf("Unexpected saved recipe %+v", saved)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/recipes", map[string]any{"title": ""}), http.StatusBadRequest)
	rec = ts.do(t, http.MethodPost, "/api/recipes", map[string]any{"title": "Omelette", "difficulty": "medium", "cuisine": "French"})
	expectStatus(t, rec, http.StatusCreated)
	omelette := decode[kitchen.Recipe](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/recipes?difficulty=easy", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]kitchen.Recipe](t, rec); len(list) != 1 || list[0].Title != "Apple Crumble" {
		t.Errorf("Expected easy recipes only, got %+v", list)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/recipes/"+omelette.ID, nil), http.StatusNoContent)
	rec = ts.do(t, http.MethodGet, "/api/recipes", nil)
	if list := decode[[]kitchen.Recipe](t, rec); len(list) != 1 {
		t.Errorf("Expected one recipe after delete, got %d", len(list))
	}

	t.Run("TipsUseCurrentRecipe", func(t *testing.T) {
		ts.gen.set(`["Chill the butter", "Use tart apples"]`, nil)
		rec := ts.do(t, http.MethodPost, "/api/tips", map[string]any{})
		expectStatus(t, rec, http.StatusOK)
		if tips := decode[map[string][]string](t, rec)["tips"]; len(tips) != 2 {
			t.Errorf("Unexpected tips %v", tips)
		}
		if !strings.Contains(ts.gen.lastPrompt(), "Apple Crumble") {
			t.Errorf("Expected current recipe in tips prompt, got %s", ts.gen.lastPrompt())
		}
	})

	t.Run("Substitutions", func(t *testing.T) {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/substitutions", map[string]any{"ingredient": " "}), http.StatusBadRequest)

		ts.gen.set(`["maple syrup"]`, nil)
		rec := ts.do(t, http.MethodPost, "/api/substitutions", map[string]any{"ingredient": "honey"})
		expectStatus(t, rec, http.StatusOK)
		if subs := decode[map[string][]string](t, rec)["substitutions"]; len(subs) != 1 || subs[0] != "maple syrup" {
			t.Errorf("Unexpected substitutions %v", subs)
		}
	})

	t.Run("GeneratorErrors", func(t *testing.T) {
		ts.gen.set("", llm.ErrRateLimited)
		rec := ts.do(t, http.MethodPost, "/api/substitutions", map[string]any{"ingredient": "honey"})
		expectStatus(t, rec, http.StatusTooManyRequests)

		ts.gen.set("", &llm.APIError{Provider: "Gemini", StatusCode: 403, Kind: llm.ErrForbidden})
		rec = ts.do(t, http.MethodPost, "/api/recipes/generate", map[string]any{"ingredients": []string{"rice"}})
		expectStatus(t, rec, http.StatusBadGateway)
		if msg := decode[map[string]string](t, rec)["error"]; msg != "API key is invalid or doesn't have permission." {
			t.Errorf("Unexpected error message '%s'", msg)
		}
	})

	usage, err := ts.usage.GetDailyUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error reading usage, got %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 3 {
		t.Errorf("Expected three recorded model calls, got %+v", usage)
	}
}

func TestImportRecipe(t *testing.T) {
	ts := newTestServer(t)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><script type="application/ld+json">
		{"@type":"Recipe","name":"Banana Bread","recipeIngredient":["3 bananas"],"recipeInstructions":"Mash.\nBake.","recipeYield":"1 loaf","cookTime":"PT1H"}
		</script></head><body></body></html>`))
	}))
	defer page.Close()

	expectStatus(t, ts.do(t, http.MethodPost, "/api/recipes/import", map[string]any{"url": "ftp://example.com"}), http.StatusBadRequest)

	rec := ts.do(t, http.MethodPost, "/api/recipes/import", map[string]any{"url": page.URL, "save": true})
	expectStatus(t, rec, http.StatusOK)
	resp := decode[importResponse](t, rec)
	if !resp.FromMarkup || resp.Recipe.Title != "Banana Bread" || resp.Recipe.CookTime != 60 || resp.Recipe.Servings != 1 {
		t.Errorf("Unexpected import %+v", resp)
	}
	if resp.Saved == nil || resp.Saved.ID == "" || len(resp.Saved.Instructions) != 2 {
		t.Errorf("Expected saved recipe, got %+v", resp.Saved)
	}
}

func TestMealPlans(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"meal_type": "lunch"}), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"date": "2024-04-30", "meal_type": "brunch"}), http.StatusBadRequest)

	rec := ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"date": "2024-04-30", "meal_type": "lunch", "notes": "leftovers"})
	expectStatus(t, rec, http.StatusCreated)
	entry := decode[kitchen.MealPlanEntry](t, rec)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"date": "2024-05-08", "meal_type": "dinner"}), http.StatusCreated)

	rec = ts.do(t, http.MethodGet, "/api/meal-plans", nil)
	if list := decode[[]kitchen.MealPlanEntry](t, rec); len(list) != 2 || list[0].ID != entry.ID {
		t.Errorf("Expected two date-ordered entries, got %+v", list)
	}

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/week", nil)
	expectStatus(t, rec, http.StatusOK)
	week := decode[kitchen.Week](t, rec)
	if week.Start.String() != "2024-04-29" || len(week.Meals) != 1 || week.Completion != 5 {
		t.Errorf("Unexpected current week %+v", week)
	}

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/week?date=2024-05-08", nil)
	week = decode[kitchen.Week](t, rec)
	if week.Start.String() != "2024-05-06" || len(week.Meals) != 1 || week.Meals[0].MealType != kitchen.Dinner {
		t.Errorf("Unexpected next week %+v", week)
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/meal-plans/week?date=soon", nil), http.StatusBadRequest)

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/meal-plans/"+entry.ID, nil), http.StatusNoContent)
	rec = ts.do(t, http.MethodGet, "/api/meal-plans", nil)
	if list := decode[[]kitchen.MealPlanEntry](t, rec); len(list) != 1 {
		t.Errorf("Expected one entry after delete, got %+v", list)
	}
}

func TestShoppingList(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/recipes", map[string]any{
		"title":       "Pancakes",
		"ingredients": []string{"200 g flour", "2 eggs", "300 ml milk"},
	})
	expectStatus(t, rec, http.StatusCreated)
	pancakes := decode[kitchen.Recipe](t, rec)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "flour", "quantity": 1, "unit": "kg"}), http.StatusCreated)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"date": "2024-04-30", "meal_type": "breakfast", "recipe_id": pancakes.ID}), http.StatusCreated)

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/week/shopping", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[shopping.List](t, rec)
	if len(list.Items) != 2 || list.Items[0].Name != "2 eggs" || list.Items[0].Recipes[0] != "Pancakes" {
		t.Errorf("Unexpected shopping items %+v", list.Items)
	}
	if len(list.InPantry) != 1 || list.InPantry[0] != "200 g flour" {
		t.Errorf("Expected flour to be in the pantry, got %v", list.InPantry)
	}

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/week/shopping?date=2024-05-08", nil)
	if list := decode[shopping.List](t, rec); len(list.Items) != 0 {
		t.Errorf("Expected nothing to buy next week, got %+v", list.Items)
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/meal-plans/week/shopping?date=later", nil), http.StatusBadRequest)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "  "}), http.StatusBadRequest)

	ts.gen.set("Blanching is boiling briefly, then chilling in ice water.", nil)
	rec := ts.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "What is blanching?"})
	expectStatus(t, rec, http.StatusOK)
	reply := decode[kitchen.Reply](t, rec)
	if reply.Message.Type != kitchen.RoleAI || !strings.HasPrefix(reply.Message.Content, "Blanching") {
		t.Errorf("Unexpected reply %+v", reply)
	}

	t.Run("RecipeFromSelection", func(t *testing.T) {
		ts.gen.set(generatedJSON, nil)
		rec := ts.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "something sweet", "selected_ingredients": []string{"apples"}})
		expectStatus(t, rec, http.StatusOK)
		reply := decode[kitchen.Reply](t, rec)
		if reply.Recipe == nil || reply.Recipe.Title != "Apple Crumble" || reply.Message.Type != kitchen.RoleRecipe {
			t.Errorf("Expected recipe reply, got %+v", reply)
		}
	})

	t.Run("GeneratorFailureIsStored", func(t *testing.T) {
		ts.gen.set("", llm.ErrRateLimited)
		rec := ts.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "How hot should oil be?"})
		expectStatus(t, rec, http.StatusBadGateway)
		body := decode[chatErrorResponse](t, rec)
		if body.Error != "Too many requests. Please wait a moment and try again." {
			t.Errorf("Unexpected error text '%s'", body.Error)
		}
		if body.Message == nil || !body.Message.IsError() {
			t.Errorf("Expected stored error message, got %+v", body.Message)
		}
	})

	rec = ts.do(t, http.MethodGet, "/api/chat", nil)
	expectStatus(t, rec, http.StatusOK)
	history := decode[chatHistoryResponse](t, rec)
	if len(history.Messages) != 6 || history.SessionID == "" {
		t.Fatalf("Expected six messages in one session, got %d (%s)", len(history.Messages), history.SessionID)
	}
	for _, m := range history.Messages {
		if m.SessionID != history.SessionID {
			t.Errorf("Expected every message in session %s, got %s", history.SessionID, m.SessionID)
		}
	}

	rec = ts.do(t, http.MethodPost, "/api/chat/sessions", nil)
	expectStatus(t, rec, http.StatusCreated)
	if id := decode[map[string]string](t, rec)["session_id"]; id == "" || id == history.SessionID {
		t.Errorf("Expected a fresh session id, got '%s'", id)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/chat", nil), http.StatusNoContent)
	rec = ts.do(t, http.MethodGet, "/api/chat", nil)
	if cleared := decode[chatHistoryResponse](t, rec); len(cleared.Messages) != 0 {
		t.Errorf("Expected empty history after clear, got %d", len(cleared.Messages))
	}
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "Yogurt", "quantity": 1, "expiry_date": "2024-05-03"}), http.StatusCreated)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/ingredients", map[string]any{"name": "Rice", "quantity": 2}), http.StatusCreated)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/meal-plans", map[string]any{"date": "2024-05-01", "meal_type": "dinner"}), http.StatusCreated)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", nil)
	expectStatus(t, rec, http.StatusOK)
	d := decode[kitchen.Dashboard](t, rec)
	if d.IngredientCount != 2 || d.MealPlanCount != 1 || d.RecipeCount != 0 {
		t.Errorf("Unexpected counts %+v", d)
	}
	if len(d.ExpiringSoon) != 1 || d.ExpiringSoon[0].Name != "Yogurt" {
		t.Errorf("Expected yogurt expiring soon, got %+v", d.ExpiringSoon)
	}
	if len(d.TodayMeals) != 1 {
		t.Errorf("Expected today's dinner, got %+v", d.TodayMeals)
	}
}
