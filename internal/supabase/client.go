package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"kitchen-assistant/internal/kitchen"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxTries = 3
)

// Error is a non-2xx PostgREST response.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.StatusCode)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the Supabase REST endpoint of a project. It implements
// kitchen.RemoteStore.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client

	maxTries        uint
	initialInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how often reads are attempted and the first retry delay.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.initialInterval = initialInterval
	}
}

// NewClient creates a client for the project at baseURL using its anon or
// service key.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:         baseURL,
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		maxTries:        defaultMaxTries,
		initialInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAccessToken returns a copy that sends a user's access token instead
// of the API key as bearer, so row-level security applies to that user.
func (c *Client) WithAccessToken(token string) *Client {
	cp := *c
	cp.accessToken = token
	return &cp
}

var _ kitchen.RemoteStore = (*Client)(nil)

func ownerQuery(userID, order string) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	if order != "" {
		q.Set("order", order)
	}
	return q
}

func rowQuery(userID, id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+userID)
	return q
}

func (c *Client) ListIngredients(ctx context.Context, userID string) ([]kitchen.Ingredient, error) {
	rows := []kitchen.Ingredient{}
	err := c.get(ctx, "ingredients", ownerQuery(userID, "created_at.desc"), &rows)
	return rows, err
}

func (c *Client) InsertIngredient(ctx context.Context, userID string, in kitchen.NewIngredient) (kitchen.Ingredient, error) {
	payload := struct {
		UserID string `json:"user_id"`
		kitchen.NewIngredient
	}{userID, in}

	var rows []kitchen.Ingredient
	if err := c.write(ctx, http.MethodPost, "ingredients", nil, []any{payload}, &rows); err != nil {
		return kitchen.Ingredient{}, err
	}
	return first(rows, "ingredient")
}

func (c *Client) UpdateIngredient(ctx context.Context, userID, id string, upd kitchen.IngredientUpdate) (kitchen.Ingredient, error) {
	var rows []kitchen.Ingredient
	if err := c.write(ctx, http.MethodPatch, "ingredients", rowQuery(userID, id), upd, &rows); err != nil {
		return kitchen.Ingredient{}, err
	}
	return first(rows, "ingredient")
}

func (c *Client) DeleteIngredient(ctx context.Context, userID, id string) error {
	return c.write(ctx, http.MethodDelete, "ingredients", rowQuery(userID, id), nil, nil)
}

func (c *Client) ListRecipes(ctx context.Context, userID string) ([]kitchen.Recipe, error) {
	rows := []kitchen.Recipe{}
	err := c.get(ctx, "recipes", ownerQuery(userID, "created_at.desc"), &rows)
	return rows, err
}

func (c *Client) InsertRecipe(ctx context.Context, userID string, in kitchen.NewRecipe) (kitchen.Recipe, error) {
	payload := struct {
		UserID string `json:"user_id"`
		kitchen.NewRecipe
	}{userID, in}

	var rows []kitchen.Recipe
	if err := c.write(ctx, http.MethodPost, "recipes", nil, []any{payload}, &rows); err != nil {
		return kitchen.Recipe{}, err
	}
	return first(rows, "recipe")
}

func (c *Client) DeleteRecipe(ctx context.Context, userID, id string) error {
	return c.write(ctx, http.MethodDelete, "recipes", rowQuery(userID, id), nil, nil)
}

func (c *Client) ListMealPlans(ctx context.Context, userID string) ([]kitchen.MealPlanEntry, error) {
	rows := []kitchen.MealPlanEntry{}
	err := c.get(ctx, "meal_plans", ownerQuery(userID, "date.asc"), &rows)
	return rows, err
}

func (c *Client) InsertMealPlan(ctx context.Context, userID string, in kitchen.NewMealPlan) (kitchen.MealPlanEntry, error) {
	payload := struct {
		UserID string `json:"user_id"`
		kitchen.NewMealPlan
	}{userID, in}

	var rows []kitchen.MealPlanEntry
	if err := c.write(ctx, http.MethodPost, "meal_plans", nil, []any{payload}, &rows); err != nil {
		return kitchen.MealPlanEntry{}, err
	}
	return first(rows, "meal plan")
}

func (c *Client) DeleteMealPlan(ctx context.Context, userID, id string) error {
	return c.write(ctx, http.MethodDelete, "meal_plans", rowQuery(userID, id), nil, nil)
}

func (c *Client) ListChatMessages(ctx context.Context, userID string) ([]kitchen.ChatMessage, error) {
	rows := []kitchen.ChatMessage{}
	err := c.get(ctx, "chat_history", ownerQuery(userID, "created_at.asc"), &rows)
	return rows, err
}

func (c *Client) InsertChatMessage(ctx context.Context, userID string, in kitchen.NewChatMessage) (kitchen.ChatMessage, error) {
	payload := struct {
		UserID string `json:"user_id"`
		kitchen.NewChatMessage
	}{userID, in}

	var rows []kitchen.ChatMessage
	if err := c.write(ctx, http.MethodPost, "chat_history", nil, []any{payload}, &rows); err != nil {
		return kitchen.ChatMessage{}, err
	}
	return first(rows, "chat message")
}

func (c *Client) DeleteChatHistory(ctx context.Context, userID string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	return c.write(ctx, http.MethodDelete, "chat_history", q, nil, nil)
}

func first[T any](rows []T, what string) (T, error) {
	if len(rows) == 0 {
		var zero T
		return zero, fmt.Errorf("%s: %w", what, kitchen.ErrNotFound)
	}
	return rows[0], nil
}

// get reads a table, retrying network failures and 5xx responses.
func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	operation := func() ([]byte, error) {
		data, err := c.send(ctx, http.MethodGet, table, query, nil)
		if err == nil {
			return data, nil
		}
		var apiErr *Error
		if ctx.Err() != nil || (errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", table, err)
	}
	return nil
}

// write sends a mutation once. out may be nil.
func (c *Client) write(ctx context.Context, method, table string, query url.Values, body, out any) error {
	data, err := c.send(ctx, method, table, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", table, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, table string, query url.Values, body any) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	bearer := c.apiKey
	if c.accessToken != "" {
		bearer = c.accessToken
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Message = string(data)
		}
		return nil, apiErr
	}
	return data, nil
}
