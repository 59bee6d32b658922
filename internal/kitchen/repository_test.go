package kitchen

import (
	"context"
	"errors"
	"testing"
	"time"

	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/testutil"
)

func newTestRepository(t *testing.T) *SQLRepository {
	t.Helper()
	repo := NewSQLRepository(testutil.NewTestDatabase(t))
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return repo
}

func TestSQLRepository_Ingredients(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	milk, err := repo.InsertIngredient(ctx, "u1", NewIngredient{Name: "Milk", Quantity: 1.5, Unit: "liters", Category: "dairy", ExpiryDate: datePtr("2024-03-08")})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertIngredient(ctx, "u1", NewIngredient{Name: "Rice", Quantity: 2, Unit: "kg", Category: "grains"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertIngredient(ctx, "u2", NewIngredient{Name: "Other", Category: "other"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	list, err := repo.ListIngredients(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Rice" || list[1].Name != "Milk" {
		t.Fatalf("Expected newest first for u1, got %+v", list)
	}
	if list[1].ExpiryDate == nil || list[1].ExpiryDate.String() != "2024-03-08" || list[0].ExpiryDate != nil {
		t.Errorf("Unexpected expiry dates %+v / %+v", list[1].ExpiryDate, list[0].ExpiryDate)
	}
	if !list[1].CreatedAt.Equal(milk.CreatedAt) {
		t.Errorf("Expected created_at round trip, got %v want %v", list[1].CreatedAt, milk.CreatedAt)
	}

	name := "Oat Milk"
	stamp := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	updated, err := repo.UpdateIngredient(ctx, "u1", milk.ID, IngredientUpdate{Name: &name, UpdatedAt: &stamp})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if updated.Name != "Oat Milk" || updated.Quantity != 1.5 || !updated.UpdatedAt.Equal(stamp) {
		t.Errorf("Unexpected updated row %+v", updated)
	}

	if _, err := repo.UpdateIngredient(ctx, "u2", milk.ID, IngredientUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating another user's row, got %v", err)
	}

	if err := repo.DeleteIngredient(ctx, "u2", milk.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if list, _ := repo.ListIngredients(ctx, "u1"); len(list) != 2 {
		t.Errorf("Expected another user's delete to be a no-op")
	}
	if err := repo.DeleteIngredient(ctx, "u1", milk.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if list, _ := repo.ListIngredients(ctx, "u1"); len(list) != 1 {
		t.Errorf("Expected 1 ingredient after delete, got %d", len(list))
	}
}

func TestSQLRepository_Recipes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	in := RecipeFromGenerated(recipe.GeneratedRecipe{
		Title:        "Shakshuka",
		Description:  "Eggs in sauce",
		Ingredients:  []string{"4 eggs", "1 can tomatoes"},
		Instructions: []string{"Simmer sauce", "Add eggs"},
		PrepTime:     10,
		CookTime:     20,
		Servings:     2,
		Difficulty:   "easy",
		Cuisine:      "middle eastern",
		Tags:         []string{"brunch"},
	})
	saved, err := repo.InsertRecipe(ctx, "u1", in)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	list, err := repo.ListRecipes(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 recipe, got %d", len(list))
	}
	got := list[0]
	if got.ID != saved.ID || got.Title != "Shakshuka" || got.Servings != 2 || got.Cuisine != "middle eastern" {
		t.Errorf("Unexpected recipe %+v", got)
	}
	if len(got.Ingredients) != 2 || got.Instructions[1] != "Add eggs" || got.Tags[0] != "brunch" {
		t.Errorf("Unexpected lists %+v", got)
	}

	if err := repo.DeleteRecipe(ctx, "u1", saved.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if list, _ := repo.ListRecipes(ctx, "u1"); len(list) != 0 {
		t.Errorf("Expected no recipes after delete")
	}
}

func TestSQLRepository_MealPlansOrderedByDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, in := range []NewMealPlan{
		{Date: MustParseDate("2024-03-06"), MealType: Dinner, Notes: "leftovers"},
		{Date: MustParseDate("2024-03-04"), MealType: Lunch, RecipeID: "r1"},
		{Date: MustParseDate("2024-03-04"), MealType: Lunch},
	} {
		if _, err := repo.InsertMealPlan(ctx, "u1", in); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	list, err := repo.ListMealPlans(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected duplicates to be allowed, got %d entries", len(list))
	}
	if list[0].Date.String() != "2024-03-04" || list[0].RecipeID != "r1" || list[2].Notes != "leftovers" {
		t.Errorf("Unexpected order %+v", list)
	}
}

func TestSQLRepository_Chat(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	gen := recipe.GeneratedRecipe{Title: "Toast", Servings: 1}
	if _, err := repo.InsertChatMessage(ctx, "u1", NewChatMessage{SessionID: "s1", Type: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	stored, err := repo.InsertChatMessage(ctx, "u1", NewChatMessage{
		SessionID:  "s1",
		Type:       RoleRecipe,
		Content:    "here",
		Metadata:   Metadata{"recipe": gen, "confidence": "structured"},
		TokensUsed: 42,
	})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertChatMessage(ctx, "u2", NewChatMessage{SessionID: "s9", Type: RoleUser, Content: "other"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	if rec, ok := stored.Recipe(); !ok || rec.Title != "Toast" {
		t.Errorf("Expected recipe readable from returned row, got %+v", stored.Metadata)
	}

	list, err := repo.ListChatMessages(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 2 || list[0].Content != "hi" || list[1].TokensUsed != 42 {
		t.Fatalf("Expected oldest first, got %+v", list)
	}
	if rec, ok := list[1].Recipe(); !ok || rec.Title != "Toast" || rec.Servings != 1 {
		t.Errorf("Expected recipe decoded from metadata, got %+v", list[1].Metadata)
	}

	if err := repo.DeleteChatHistory(ctx, "u1"); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	if list, _ := repo.ListChatMessages(ctx, "u1"); len(list) != 0 {
		t.Errorf("Expected empty history, got %d", len(list))
	}
	if list, _ := repo.ListChatMessages(ctx, "u2"); len(list) != 1 {
		t.Errorf("Expected other user's history kept, got %d", len(list))
	}
}

func TestSQLRepository_BacksStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestRepository(t), WithUser(testUser))

	if _, err := store.AddIngredient(ctx, NewIngredient{Name: "Garlic", Quantity: 3, Unit: "pieces", Category: "vegetables"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := store.Refresh(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := store.Ingredients(); len(got) != 1 || got[0].Name != "Garlic" {
		t.Errorf("Unexpected ingredients %+v", got)
	}
}
