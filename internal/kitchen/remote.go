package kitchen

import "context"

// RemoteStore is the authoritative backend for the four user-scoped
// collections. Every call is filtered by the owning user id. Insert and
// update return the row as stored, including server-assigned ids and
// timestamps.
type RemoteStore interface {
	ListIngredients(ctx context.Context, userID string) ([]Ingredient, error)
	InsertIngredient(ctx context.Context, userID string, in NewIngredient) (Ingredient, error)
	UpdateIngredient(ctx context.Context, userID, id string, upd IngredientUpdate) (Ingredient, error)
	DeleteIngredient(ctx context.Context, userID, id string) error

	ListRecipes(ctx context.Context, userID string) ([]Recipe, error)
	InsertRecipe(ctx context.Context, userID string, in NewRecipe) (Recipe, error)
	DeleteRecipe(ctx context.Context, userID, id string) error

	ListMealPlans(ctx context.Context, userID string) ([]MealPlanEntry, error)
	InsertMealPlan(ctx context.Context, userID string, in NewMealPlan) (MealPlanEntry, error)
	DeleteMealPlan(ctx context.Context, userID, id string) error

	ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error)
	InsertChatMessage(ctx context.Context, userID string, in NewChatMessage) (ChatMessage, error)
	DeleteChatHistory(ctx context.Context, userID string) error
}
