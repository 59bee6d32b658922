package kitchen

import (
	"math"
	"sort"
	"strings"
	"time"
)

// AllOption matches every value in category, difficulty and cuisine filters.
const AllOption = "All"

// ExpiryStatus classifies how close an ingredient is to expiring.
type ExpiryStatus string

const (
	ExpiryNone     ExpiryStatus = "none"
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryExpiring ExpiryStatus = "expiring"
	ExpiryWarning  ExpiryStatus = "warning"
	ExpiryFresh    ExpiryStatus = "fresh"
)

// DaysUntil is the number of started days between now and the expiry date,
// negative once the date has passed.
func DaysUntil(expiry Date, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// ExpiryStatusOf classifies an optional expiry date relative to now.
func ExpiryStatusOf(expiry *Date, now time.Time) ExpiryStatus {
	if expiry == nil {
		return ExpiryNone
	}
	switch days := DaysUntil(*expiry, now); {
	case days < 0:
		return ExpiryExpired
	case days <= 3:
		return ExpiryExpiring
	case days <= 7:
		return ExpiryWarning
	default:
		return ExpiryFresh
	}
}

// IngredientSort orders a filtered inventory.
type IngredientSort string

const (
	SortByName     IngredientSort = "name"
	SortByExpiry   IngredientSort = "expiry"
	SortByQuantity IngredientSort = "quantity"
)

// IngredientFilter narrows and orders the inventory.
type IngredientFilter struct {
	Search   string
	Category string
	SortBy   IngredientSort
}

// FilterIngredients returns the ingredients whose name contains the search
// text and whose category matches, in the requested order. Ingredients
// without an expiry date sort last by expiry; quantity sorts largest first.
func FilterIngredients(list []Ingredient, f IngredientFilter) []Ingredient {
	search := strings.ToLower(f.Search)
	out := []Ingredient{}
	for _, ing := range list {
		if !strings.Contains(strings.ToLower(ing.Name), search) {
			continue
		}
		if !matchesOption(f.Category, ing.Category) {
			continue
		}
		out = append(out, ing)
	}

	switch f.SortBy {
	case SortByName, "":
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByExpiry:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].ExpiryDate, out[j].ExpiryDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(b.Time)
			}
		})
	case SortByQuantity:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Quantity > out[j].Quantity
		})
	}
	return out
}

// IngredientNames returns up to limit names in inventory order. A limit of
// zero or less means no limit.
func IngredientNames(list []Ingredient, limit int) []string {
	names := make([]string, 0, len(list))
	for _, ing := range list {
		if limit > 0 && len(names) == limit {
			break
		}
		names = append(names, ing.Name)
	}
	return names
}

// Difficulties lists the recipe difficulty filter options.
var Difficulties = []string{AllOption, "easy", "medium", "hard"}

// RecipeFilter narrows the recipe list.
type RecipeFilter struct {
	Search     string
	Difficulty string
	Cuisine    string
}

// FilterRecipes returns recipes whose title or description contains the
// search text and whose difficulty and cuisine match.
func FilterRecipes(list []Recipe, f RecipeFilter) []Recipe {
	search := strings.ToLower(f.Search)
	out := []Recipe{}
	for _, r := range list {
		if !strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if !matchesOption(f.Difficulty, r.Difficulty) || !matchesOption(f.Cuisine, r.Cuisine) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Cuisines returns the cuisine filter options: All, then each distinct
// cuisine in first-seen order.
func Cuisines(list []Recipe) []string {
	seen := map[string]bool{}
	out := []string{AllOption}
	for _, r := range list {
		if !seen[r.Cuisine] {
			seen[r.Cuisine] = true
			out = append(out, r.Cuisine)
		}
	}
	return out
}

func matchesOption(option, value string) bool {
	return option == "" || option == AllOption || option == value
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) Date {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// MealsOn returns the entries planned for a day, optionally limited to one
// meal slot when mealType is non-empty.
func MealsOn(list []MealPlanEntry, day Date, mealType MealType) []MealPlanEntry {
	out := []MealPlanEntry{}
	for _, m := range list {
		if !m.Date.Equal(day.Time) {
			continue
		}
		if mealType != "" && m.MealType != mealType {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Week is the meal plan for the seven days starting at Start.
type Week struct {
	Start Date            `json:"start"`
	Days  []Date          `json:"days"`
	Meals []MealPlanEntry `json:"meals"`
	// Completion is the share of the 21 weekly meal slots with an entry,
	// as a rounded percentage. Duplicate entries count separately.
	Completion int `json:"completion"`
}

// MealsForWeek collects the entries of the Monday-based week containing t.
func MealsForWeek(list []MealPlanEntry, t time.Time) Week {
	start := WeekStart(t)
	end := start.AddDays(6)

	w := Week{Start: start, Days: make([]Date, 7), Meals: []MealPlanEntry{}}
	for i := range w.Days {
		w.Days[i] = start.AddDays(i)
	}
	for _, m := range list {
		if !m.Date.Before(start.Time) && !m.Date.After(end.Time) {
			w.Meals = append(w.Meals, m)
		}
	}
	slots := len(w.Days) * len(MealTypes)
	w.Completion = int(math.Round(float64(len(w.Meals)) / float64(slots) * 100))
	return w
}

// Dashboard summarizes the kitchen for the home screen.
type Dashboard struct {
	IngredientCount int             `json:"ingredient_count"`
	RecipeCount     int             `json:"recipe_count"`
	MealPlanCount   int             `json:"meal_plan_count"`
	ExpiringSoon    []Ingredient    `json:"expiring_soon"`
	TodayMeals      []MealPlanEntry `json:"today_meals"`
	RecentRecipes   []Recipe        `json:"recent_recipes"`
}

// Summarize builds the dashboard from a snapshot. Expiring ingredients are
// those due within zero to three days; today is the UTC calendar day.
func Summarize(snap Snapshot, now time.Time) Dashboard {
	d := Dashboard{
		IngredientCount: len(snap.Ingredients),
		RecipeCount:     len(snap.Recipes),
		MealPlanCount:   len(snap.MealPlans),
		ExpiringSoon:    []Ingredient{},
		TodayMeals:      MealsOn(snap.MealPlans, DateOf(now.UTC()), ""),
	}

	for _, ing := range snap.Ingredients {
		if ing.ExpiryDate == nil {
			continue
		}
		if days := DaysUntil(*ing.ExpiryDate, now); days >= 0 && days <= 3 {
			d.ExpiringSoon = append(d.ExpiringSoon, ing)
		}
	}

	recent := snap.Recipes
	if len(recent) > 3 {
		recent = recent[:3]
	}
	d.RecentRecipes = append([]Recipe{}, recent...)
	return d
}
