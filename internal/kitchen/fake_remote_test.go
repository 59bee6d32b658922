package kitchen

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeRemote is an in-memory RemoteStore that counts calls.
type fakeRemote struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
	now   time.Time
	seq   int

	ingredients []Ingredient
	recipes     []Recipe
	mealPlans   []MealPlanEntry
	chat        []ChatMessage

	// beforeInsertChat runs before a chat row is stored.
	beforeInsertChat func(in NewChatMessage)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls: make(map[string]int),
		now:   time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRemote) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeRemote) nextID(prefix string) (string, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq), f.now.Add(time.Duration(f.seq) * time.Second)
}

func (f *fakeRemote) ListIngredients(ctx context.Context, userID string) ([]Ingredient, error) {
	if err := f.record("ListIngredients"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterOwned(f.ingredients, userID, func(i Ingredient) string { return i.UserID }), nil
}

func (f *fakeRemote) InsertIngredient(ctx context.Context, userID string, in NewIngredient) (Ingredient, error) {
	if err := f.record("InsertIngredient"); err != nil {
		return Ingredient{}, err
	}
	id, ts := f.nextID("ing")
	row := Ingredient{ID: id, UserID: userID, Name: in.Name, Quantity: in.Quantity, Unit: in.Unit,
		Category: in.Category, ExpiryDate: in.ExpiryDate, CreatedAt: ts, UpdatedAt: ts}
	f.mu.Lock()
	f.ingredients = append([]Ingredient{row}, f.ingredients...)
	f.mu.Unlock()
	return row, nil
}

func (f *fakeRemote) UpdateIngredient(ctx context.Context, userID, id string, upd IngredientUpdate) (Ingredient, error) {
	if err := f.record("UpdateIngredient"); err != nil {
		return Ingredient{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ing := range f.ingredients {
		if ing.ID == id && ing.UserID == userID {
			f.ingredients[i] = upd.Apply(ing)
			return f.ingredients[i], nil
		}
	}
	return Ingredient{}, ErrNotFound
}

func (f *fakeRemote) DeleteIngredient(ctx context.Context, userID, id string) error {
	if err := f.record("DeleteIngredient"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingredients = removeByID(f.ingredients, id, func(i Ingredient) string { return i.ID })
	return nil
}

func (f *fakeRemote) ListRecipes(ctx context.Context, userID string) ([]Recipe, error) {
	if err := f.record("ListRecipes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterOwned(f.recipes, userID, func(r Recipe) string { return r.UserID }), nil
}

func (f *fakeRemote) InsertRecipe(ctx context.Context, userID string, in NewRecipe) (Recipe, error) {
	if err := f.record("InsertRecipe"); err != nil {
		return Recipe{}, err
	}
	id, ts := f.nextID("rec")
	row := Recipe{ID: id, UserID: userID, Title: in.Title, Description: in.Description,
		Ingredients: in.Ingredients, Instructions: in.Instructions, PrepTime: in.PrepTime,
		CookTime: in.CookTime, Servings: in.Servings, Difficulty: in.Difficulty, Cuisine: in.Cuisine,
		Tags: in.Tags, CreatedAt: ts, UpdatedAt: ts}
	f.mu.Lock()
	f.recipes = append([]Recipe{row}, f.recipes...)
	f.mu.Unlock()
	return row, nil
}

func (f *fakeRemote) DeleteRecipe(ctx context.Context, userID, id string) error {
	if err := f.record("DeleteRecipe"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipes = removeByID(f.recipes, id, func(r Recipe) string { return r.ID })
	return nil
}

func (f *fakeRemote) ListMealPlans(ctx context.Context, userID string) ([]MealPlanEntry, error) {
	if err := f.record("ListMealPlans"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterOwned(f.mealPlans, userID, func(m MealPlanEntry) string { return m.UserID }), nil
}

func (f *fakeRemote) InsertMealPlan(ctx context.Context, userID string, in NewMealPlan) (MealPlanEntry, error) {
	if err := f.record("InsertMealPlan"); err != nil {
		return MealPlanEntry{}, err
	}
	id, ts := f.nextID("meal")
	row := MealPlanEntry{ID: id, UserID: userID, Date: in.Date, MealType: in.MealType,
		RecipeID: in.RecipeID, Notes: in.Notes, CreatedAt: ts, UpdatedAt: ts}
	f.mu.Lock()
	f.mealPlans = append(f.mealPlans, row)
	f.mu.Unlock()
	return row, nil
}

func (f *fakeRemote) DeleteMealPlan(ctx context.Context, userID, id string) error {
	if err := f.record("DeleteMealPlan"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mealPlans = removeByID(f.mealPlans, id, func(m MealPlanEntry) string { return m.ID })
	return nil
}

func (f *fakeRemote) ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error) {
	if err := f.record("ListChatMessages"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterOwned(f.chat, userID, func(m ChatMessage) string { return m.UserID }), nil
}

func (f *fakeRemote) InsertChatMessage(ctx context.Context, userID string, in NewChatMessage) (ChatMessage, error) {
	if f.beforeInsertChat != nil {
		f.beforeInsertChat(in)
	}
	if err := f.record("InsertChatMessage"); err != nil {
		return ChatMessage{}, err
	}
	id, ts := f.nextID("msg")
	row := ChatMessage{ID: id, UserID: userID, SessionID: in.SessionID, Type: in.Type, Content: in.Content,
		Metadata: in.Metadata, TokensUsed: in.TokensUsed, ResponseTimeMS: in.ResponseTimeMS, CreatedAt: ts}
	f.mu.Lock()
	f.chat = append(f.chat, row)
	f.mu.Unlock()
	return row, nil
}

func (f *fakeRemote) DeleteChatHistory(ctx context.Context, userID string) error {
	if err := f.record("DeleteChatHistory"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.chat[:0:0]
	for _, m := range f.chat {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.chat = kept
	return nil
}

func filterOwned[T any](list []T, userID string, owner func(T) string) []T {
	out := []T{}
	for _, item := range list {
		if owner(item) == userID {
			out = append(out, item)
		}
	}
	return out
}
