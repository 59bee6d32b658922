package kitchen

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kitchen-assistant/internal/database"
)

// ErrNotFound is returned when a row does not exist for the user.
var ErrNotFound = errors.New("not found")

// SQLRepository is a RemoteStore on the local SQLite database.
type SQLRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLRepository creates a repository on an open, migrated database.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

func (r *SQLRepository) timestamp() (time.Time, string) {
	now := r.now().UTC()
	return now, now.Format(database.TimeLayout)
}

const ingredientColumns = `id, user_id, name, quantity, unit, category, expiry_date, created_at, updated_at`

func (r *SQLRepository) ListIngredients(ctx context.Context, userID string) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	list := []Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ing)
	}
	return list, rows.Err()
}

func (r *SQLRepository) getIngredient(ctx context.Context, userID, id string) (Ingredient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ? AND user_id = ?`, id, userID)
	ing, err := scanIngredient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Ingredient{}, fmt.Errorf("ingredient %s: %w", id, ErrNotFound)
	}
	return ing, err
}

func (r *SQLRepository) InsertIngredient(ctx context.Context, userID string, in NewIngredient) (Ingredient, error) {
	now, ts := r.timestamp()
	ing := Ingredient{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       in.Name,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		Category:   in.Category,
		ExpiryDate: in.ExpiryDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (`+ingredientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ing.ID, ing.UserID, ing.Name, ing.Quantity, ing.Unit, ing.Category, nullDate(ing.ExpiryDate), ts, ts)
	if err != nil {
		return Ingredient{}, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	return ing, nil
}

func (r *SQLRepository) UpdateIngredient(ctx context.Context, userID, id string, upd IngredientUpdate) (Ingredient, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Quantity != nil {
		add("quantity", *upd.Quantity)
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.ExpiryDate != nil {
		add("expiry_date", upd.ExpiryDate.String())
	}
	updatedAt := r.now().UTC()
	if upd.UpdatedAt != nil {
		updatedAt = upd.UpdatedAt.UTC()
	}
	add("updated_at", updatedAt.Format(database.TimeLayout))

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingredients SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return Ingredient{}, fmt.Errorf("failed to update ingredient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Ingredient{}, fmt.Errorf("ingredient %s: %w", id, ErrNotFound)
	}
	return r.getIngredient(ctx, userID, id)
}

func (r *SQLRepository) DeleteIngredient(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "ingredients", userID, id)
}

const recipeColumns = `id, user_id, title, description, ingredients, instructions, prep_time, cook_time, servings, difficulty, cuisine, tags, created_at, updated_at`

func (r *SQLRepository) ListRecipes(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	list := []Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *SQLRepository) InsertRecipe(ctx context.Context, userID string, in NewRecipe) (Recipe, error) {
	now, ts := r.timestamp()
	rec := Recipe{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		Ingredients:  nonNil(in.Ingredients),
		Instructions: nonNil(in.Instructions),
		PrepTime:     in.PrepTime,
		CookTime:     in.CookTime,
		Servings:     in.Servings,
		Difficulty:   in.Difficulty,
		Cuisine:      in.Cuisine,
		Tags:         nonNil(in.Tags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return Recipe{}, err
	}
	instructions, err := json.Marshal(rec.Instructions)
	if err != nil {
		return Recipe{}, err
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return Recipe{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Title, rec.Description, string(ingredients), string(instructions),
		rec.PrepTime, rec.CookTime, rec.Servings, rec.Difficulty, rec.Cuisine, string(tags), ts, ts)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return rec, nil
}

func (r *SQLRepository) DeleteRecipe(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "recipes", userID, id)
}

const mealPlanColumns = `id, user_id, date, meal_type, recipe_id, notes, created_at, updated_at`

func (r *SQLRepository) ListMealPlans(ctx context.Context, userID string) ([]MealPlanEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mealPlanColumns+` FROM meal_plans WHERE user_id = ? ORDER BY date ASC, created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal plans: %w", err)
	}
	defer rows.Close()

	list := []MealPlanEntry{}
	for rows.Next() {
		var (
			m                  MealPlanEntry
			date, created, upd string
			recipeID, notes    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.UserID, &date, &m.MealType, &recipeID, &notes, &created, &upd); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		if m.Date, err = ParseDate(date); err != nil {
			return nil, err
		}
		m.RecipeID, m.Notes = recipeID.String, notes.String
		if m.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		if m.UpdatedAt, err = parseTimestamp(upd); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *SQLRepository) InsertMealPlan(ctx context.Context, userID string, in NewMealPlan) (MealPlanEntry, error) {
	now, ts := r.timestamp()
	m := MealPlanEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Date:      in.Date,
		MealType:  in.MealType,
		RecipeID:  in.RecipeID,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (`+mealPlanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Date.String(), string(m.MealType), nullString(m.RecipeID), nullString(m.Notes), ts, ts)
	if err != nil {
		return MealPlanEntry{}, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) DeleteMealPlan(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "meal_plans", userID, id)
}

const chatColumns = `id, user_id, session_id, message_type, content, metadata, tokens_used, response_time_ms, created_at`

func (r *SQLRepository) ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chat_history WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	list := []ChatMessage{}
	for rows.Next() {
		var (
			m        ChatMessage
			metadata sql.NullString
			created  string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Type, &m.Content, &metadata, &m.TokensUsed, &m.ResponseTimeMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of message %s: %w", m.ID, err)
			}
		}
		if m.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *SQLRepository) InsertChatMessage(ctx context.Context, userID string, in NewChatMessage) (ChatMessage, error) {
	now, ts := r.timestamp()
	m := ChatMessage{
		ID:             uuid.New().String(),
		UserID:         userID,
		SessionID:      in.SessionID,
		Type:           in.Type,
		Content:        in.Content,
		TokensUsed:     in.TokensUsed,
		ResponseTimeMS: in.ResponseTimeMS,
		CreatedAt:      now,
	}

	var metadata sql.NullString
	if in.Metadata != nil {
		data, err := json.Marshal(in.Metadata)
		if err != nil {
			return ChatMessage{}, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
		// Hand back the stored shape, as a later fetch would.
		if err := json.Unmarshal(data, &m.Metadata); err != nil {
			return ChatMessage{}, err
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_history (`+chatColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.SessionID, string(m.Type), m.Content, metadata, m.TokensUsed, m.ResponseTimeMS, ts)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) DeleteChatHistory(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}

func (r *SQLRepository) deleteRow(ctx context.Context, table, userID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngredient(row rowScanner) (Ingredient, error) {
	var (
		ing              Ingredient
		expiry           sql.NullString
		created, updated string
	)
	if err := row.Scan(&ing.ID, &ing.UserID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Category, &expiry, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ingredient{}, err
		}
		return Ingredient{}, fmt.Errorf("failed to scan ingredient: %w", err)
	}

	var err error
	if expiry.Valid && expiry.String != "" {
		d, err := ParseDate(expiry.String)
		if err != nil {
			return Ingredient{}, err
		}
		ing.ExpiryDate = &d
	}
	if ing.CreatedAt, err = parseTimestamp(created); err != nil {
		return Ingredient{}, err
	}
	if ing.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return Ingredient{}, err
	}
	return ing, nil
}

func scanRecipe(row rowScanner) (Recipe, error) {
	var (
		rec                              Recipe
		ingredients, instructions, tags string
		created, updated                 string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &ingredients, &instructions,
		&rec.PrepTime, &rec.CookTime, &rec.Servings, &rec.Difficulty, &rec.Cuisine, &tags, &created, &updated)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to scan recipe: %w", err)
	}

	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{ingredients, &rec.Ingredients},
		{instructions, &rec.Instructions},
		{tags, &rec.Tags},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return Recipe{}, fmt.Errorf("failed to decode recipe %s: %w", rec.ID, err)
		}
		*col.dest = nonNil(*col.dest)
	}

	if rec.CreatedAt, err = parseTimestamp(created); err != nil {
		return Recipe{}, err
	}
	if rec.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullDate(d *Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
