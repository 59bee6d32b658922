package kitchen

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kitchen-assistant/internal/recipe"
)

// Categories lists the ingredient categories offered to users. Stored
// values are not validated against it.
var Categories = []string{
	"vegetables", "fruits", "meat", "seafood", "dairy", "grains",
	"spices", "herbs", "pantry", "frozen", "beverages", "other",
}

// Units lists the quantity units offered to users.
var Units = []string{
	"pieces", "kg", "g", "lbs", "oz", "liters", "ml", "cups", "tbsp", "tsp", "cans", "bottles",
}

// MealType is the slot of a meal plan entry.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the meal slots in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// Role tags a chat message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
	RoleRecipe Role = "recipe"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day. It is held at midnight UTC.
type Date struct {
	time.Time
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a YYYY-MM-DD date. A trailing time component, as sent by
// some backends for date columns, is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is the authenticated owner of every row.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Ingredient is an item in the user's inventory.
type Ingredient struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	Category   string    `json:"category"`
	ExpiryDate *Date     `json:"expiry_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewIngredient holds the caller-supplied fields of an ingredient.
type NewIngredient struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Category   string  `json:"category"`
	ExpiryDate *Date   `json:"expiry_date,omitempty"`
}

// IngredientUpdate is a partial update; nil fields are left alone.
// UpdatedAt is set by the store.
type IngredientUpdate struct {
	Name       *string    `json:"name,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	Unit       *string    `json:"unit,omitempty"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *Date      `json:"expiry_date,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Apply returns ing with the update's fields applied.
func (u IngredientUpdate) Apply(ing Ingredient) Ingredient {
	if u.Name != nil {
		ing.Name = *u.Name
	}
	if u.Quantity != nil {
		ing.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		ing.Unit = *u.Unit
	}
	if u.Category != nil {
		ing.Category = *u.Category
	}
	if u.ExpiryDate != nil {
		d := *u.ExpiryDate
		ing.ExpiryDate = &d
	}
	if u.UpdatedAt != nil {
		ing.UpdatedAt = *u.UpdatedAt
	}
	return ing
}

// Recipe is a saved recipe.
type Recipe struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	PrepTime     int       `json:"prep_time"`
	CookTime     int       `json:"cook_time"`
	Servings     int       `json:"servings"`
	Difficulty   string    `json:"difficulty"`
	Cuisine      string    `json:"cuisine"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TotalTime is prep plus cook time in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// NewRecipe holds the caller-supplied fields of a recipe.
type NewRecipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     int      `json:"prep_time"`
	CookTime     int      `json:"cook_time"`
	Servings     int      `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Cuisine      string   `json:"cuisine"`
	Tags         []string `json:"tags"`
}

// RecipeFromGenerated converts an interpreted model reply into a row that
// can be saved. Tips and story are not persisted.
func RecipeFromGenerated(g recipe.GeneratedRecipe) NewRecipe {
	return NewRecipe{
		Title:        g.Title,
		Description:  g.Description,
		Ingredients:  nonNil(g.Ingredients),
		Instructions: nonNil(g.Instructions),
		PrepTime:     g.PrepTime,
		CookTime:     g.CookTime,
		Servings:     g.Servings,
		Difficulty:   g.Difficulty,
		Cuisine:      g.Cuisine,
		Tags:         nonNil(g.Tags),
	}
}

// MealPlanEntry places a recipe or a note in a meal slot on a day.
type MealPlanEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      Date      `json:"date"`
	MealType  MealType  `json:"meal_type"`
	RecipeID  string    `json:"recipe_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMealPlan holds the caller-supplied fields of a meal plan entry.
type NewMealPlan struct {
	Date     Date     `json:"date"`
	MealType MealType `json:"meal_type"`
	RecipeID string   `json:"recipe_id,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Metadata is the open-ended attachment of a chat message.
type Metadata map[string]any

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	Type           Role      `json:"message_type"`
	Content        string    `json:"content"`
	Metadata       Metadata  `json:"metadata,omitempty"`
	TokensUsed     int       `json:"tokens_used"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recipe returns the generated recipe embedded in the message metadata.
func (m ChatMessage) Recipe() (recipe.GeneratedRecipe, bool) {
	raw, ok := m.Metadata["recipe"]
	if !ok || raw == nil {
		return recipe.GeneratedRecipe{}, false
	}
	if rec, ok := raw.(recipe.GeneratedRecipe); ok {
		return rec, true
	}

	// Rows read back from storage hold the recipe as a decoded JSON object.
	data, err := json.Marshal(raw)
	if err != nil {
		return recipe.GeneratedRecipe{}, false
	}
	var rec recipe.GeneratedRecipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return recipe.GeneratedRecipe{}, false
	}
	return rec, true
}

// IsError reports whether the message records a failed assistant call.
func (m ChatMessage) IsError() bool {
	flag, _ := m.Metadata["error"].(bool)
	return flag
}

// NewChatMessage holds the caller-supplied fields of a chat message.
// SessionID is assigned by the store.
type NewChatMessage struct {
	SessionID      string   `json:"session_id"`
	Type           Role     `json:"message_type"`
	Content        string   `json:"content"`
	Metadata       Metadata `json:"metadata,omitempty"`
	TokensUsed     int      `json:"tokens_used,omitempty"`
	ResponseTimeMS int64    `json:"response_time_ms,omitempty"`
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
