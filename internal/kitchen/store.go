package kitchen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kitchen-assistant/internal/recipe"
)

// ErrNotLoggedIn is matched by every error returned for a mutation
// attempted without a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrSessionChanged is returned when a chat reply arrives after the user
// started a new conversation or cleared the history.
var ErrSessionChanged = errors.New("chat session changed while waiting for reply")

// LoginRequiredError names the action that needed a signed-in user.
type LoginRequiredError struct {
	Action string
}

func (e *LoginRequiredError) Error() string {
	return "you must be logged in to " + e.Action
}

func (e *LoginRequiredError) Is(target error) bool {
	return target == ErrNotLoggedIn
}

type collection int

const (
	ingredientsCollection collection = iota
	recipesCollection
	mealPlansCollection
	chatCollection
	numCollections
)

// Store is the in-memory working copy of one user's kitchen. It is safe
// for concurrent use; remote calls are made without holding the lock.
type Store struct {
	remote       RemoteStore
	now          func() time.Time
	newSessionID func() string

	mu            sync.RWMutex
	user          *User
	ingredients   []Ingredient
	recipes       []Recipe
	mealPlans     []MealPlanEntry
	chat          []ChatMessage
	sessionID     string
	chatEpoch     uint64
	currentRecipe *recipe.GeneratedRecipe

	fetchSeq [numCollections]uint64
	applied  [numCollections]uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSessionIDs overrides the chat session id generator.
func WithSessionIDs(gen func() string) Option {
	return func(s *Store) { s.newSessionID = gen }
}

// WithSessionID resumes an existing chat session.
func WithSessionID(id string) Option {
	return func(s *Store) { s.sessionID = id }
}

// WithUser signs the store in from the start.
func WithUser(u User) Option {
	return func(s *Store) { s.user = &u }
}

// NewStore creates an empty store backed by remote.
func NewStore(remote RemoteStore, opts ...Option) *Store {
	s := &Store{
		remote:       remote,
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUser replaces the signed-in user. Switching to a different user drops
// everything cached for the previous one.
func (s *Store) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && u != nil && s.user.ID == u.ID {
		s.user = u
		return
	}
	s.resetLocked()
	s.user = u
}

// SignOut forgets the user and all cached state.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.user = nil
}

func (s *Store) resetLocked() {
	s.ingredients = nil
	s.recipes = nil
	s.mealPlans = nil
	s.chat = nil
	s.sessionID = ""
	s.chatEpoch++
	s.currentRecipe = nil
}

// User returns the signed-in user, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) userID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Store) requireUser(action string) (string, error) {
	id := s.userID()
	if id == "" {
		return "", &LoginRequiredError{Action: action}
	}
	return id, nil
}

// Ingredients returns a copy of the cached inventory.
func (s *Store) Ingredients() []Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Ingredient(nil), s.ingredients...)
}

// Recipes returns a copy of the cached recipes.
func (s *Store) Recipes() []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Recipe(nil), s.recipes...)
}

// MealPlans returns a copy of the cached meal plan.
func (s *Store) MealPlans() []MealPlanEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MealPlanEntry(nil), s.mealPlans...)
}

// ChatHistory returns a copy of the cached conversation.
func (s *Store) ChatHistory() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChatMessage(nil), s.chat...)
}

// SessionID returns the active chat session id, empty when none is active.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// CurrentRecipe returns the recipe most recently generated or selected.
func (s *Store) CurrentRecipe() (recipe.GeneratedRecipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentRecipe == nil {
		return recipe.GeneratedRecipe{}, false
	}
	return *s.currentRecipe, true
}

// SetCurrentRecipe replaces the current recipe. nil clears it.
func (s *Store) SetCurrentRecipe(r *recipe.GeneratedRecipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		s.currentRecipe = nil
		return
	}
	cp := *r
	s.currentRecipe = &cp
}

// beginFetch returns the user to fetch for and a ticket ordering this fetch
// against others of the same collection. An empty user means skip.
func (s *Store) beginFetch(c collection) (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return "", 0
	}
	s.fetchSeq[c]++
	return s.user.ID, s.fetchSeq[c]
}

// canApplyLocked reports whether a fetch result is still wanted and marks
// it applied.
func (s *Store) canApplyLocked(c collection, userID string, seq uint64) bool {
	if s.user == nil || s.user.ID != userID || seq < s.applied[c] {
		return false
	}
	s.applied[c] = seq
	return true
}

// FetchIngredients replaces the cached inventory with the server snapshot,
// newest first. Without a user it does nothing.
func (s *Store) FetchIngredients(ctx context.Context) error {
	userID, seq := s.beginFetch(ingredientsCollection)
	if userID == "" {
		return nil
	}

	rows, err := s.remote.ListIngredients(ctx, userID)
	if err != nil {
		log.Printf("Error fetching ingredients: %v", err)
		return fmt.Errorf("failed to fetch ingredients: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canApplyLocked(ingredientsCollection, userID, seq) {
		s.ingredients = rows
	}
	return nil
}

// FetchRecipes replaces the cached recipes with the server snapshot,
// newest first.
func (s *Store) FetchRecipes(ctx context.Context) error {
	userID, seq := s.beginFetch(recipesCollection)
	if userID == "" {
		return nil
	}

	rows, err := s.remote.ListRecipes(ctx, userID)
	if err != nil {
		log.Printf("Error fetching recipes: %v", err)
		return fmt.Errorf("failed to fetch recipes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canApplyLocked(recipesCollection, userID, seq) {
		s.recipes = rows
	}
	return nil
}

// FetchMealPlans replaces the cached meal plan with the server snapshot,
// earliest date first.
func (s *Store) FetchMealPlans(ctx context.Context) error {
	userID, seq := s.beginFetch(mealPlansCollection)
	if userID == "" {
		return nil
	}

	rows, err := s.remote.ListMealPlans(ctx, userID)
	if err != nil {
		log.Printf("Error fetching meal plans: %v", err)
		return fmt.Errorf("failed to fetch meal plans: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canApplyLocked(mealPlansCollection, userID, seq) {
		s.mealPlans = rows
	}
	return nil
}

// FetchChatHistory replaces the cached conversation with the server
// snapshot, oldest first. The active session id is kept.
func (s *Store) FetchChatHistory(ctx context.Context) error {
	userID, seq := s.beginFetch(chatCollection)
	if userID == "" {
		return nil
	}

	rows, err := s.remote.ListChatMessages(ctx, userID)
	if err != nil {
		log.Printf("Error fetching chat history: %v", err)
		return fmt.Errorf("failed to fetch chat history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canApplyLocked(chatCollection, userID, seq) {
		s.chat = rows
	}
	return nil
}

// Refresh fetches all four collections concurrently. One failing
// collection does not stop the others; the first error is returned.
func (s *Store) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchIngredients(ctx) })
	g.Go(func() error { return s.FetchRecipes(ctx) })
	g.Go(func() error { return s.FetchMealPlans(ctx) })
	g.Go(func() error { return s.FetchChatHistory(ctx) })
	return g.Wait()
}

// AddIngredient saves a new ingredient and puts it at the front of the
// inventory.
func (s *Store) AddIngredient(ctx context.Context, in NewIngredient) (Ingredient, error) {
	userID, err := s.requireUser("add ingredients")
	if err != nil {
		return Ingredient{}, err
	}

	row, err := s.remote.InsertIngredient(ctx, userID, in)
	if err != nil {
		log.Printf("Error adding ingredient: %v", err)
		return Ingredient{}, fmt.Errorf("failed to add ingredient: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.ingredients = append([]Ingredient{row}, s.ingredients...)
	}
	return row, nil
}

// UpdateIngredient applies a partial update and stamps updated_at.
func (s *Store) UpdateIngredient(ctx context.Context, id string, upd IngredientUpdate) (Ingredient, error) {
	userID, err := s.requireUser("update ingredients")
	if err != nil {
		return Ingredient{}, err
	}

	now := s.now().UTC()
	upd.UpdatedAt = &now
	row, err := s.remote.UpdateIngredient(ctx, userID, id, upd)
	if err != nil {
		log.Printf("Error updating ingredient: %v", err)
		return Ingredient{}, fmt.Errorf("failed to update ingredient: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		for i := range s.ingredients {
			if s.ingredients[i].ID == id {
				s.ingredients[i] = row
				break
			}
		}
	}
	return row, nil
}

// DeleteIngredient removes an ingredient remotely, then locally.
func (s *Store) DeleteIngredient(ctx context.Context, id string) error {
	userID, err := s.requireUser("delete ingredients")
	if err != nil {
		return err
	}

	if err := s.remote.DeleteIngredient(ctx, userID, id); err != nil {
		log.Printf("Error deleting ingredient: %v", err)
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.ingredients = removeByID(s.ingredients, id, func(i Ingredient) string { return i.ID })
	}
	return nil
}

// AddRecipe saves a recipe and puts it at the front of the list.
func (s *Store) AddRecipe(ctx context.Context, in NewRecipe) (Recipe, error) {
	userID, err := s.requireUser("save recipes")
	if err != nil {
		return Recipe{}, err
	}

	row, err := s.remote.InsertRecipe(ctx, userID, in)
	if err != nil {
		log.Printf("Error adding recipe: %v", err)
		return Recipe{}, fmt.Errorf("failed to add recipe: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.recipes = append([]Recipe{row}, s.recipes...)
	}
	return row, nil
}

// SaveGeneratedRecipe promotes an assistant recipe to a saved one.
func (s *Store) SaveGeneratedRecipe(ctx context.Context, g recipe.GeneratedRecipe) (Recipe, error) {
	return s.AddRecipe(ctx, RecipeFromGenerated(g))
}

// DeleteRecipe removes a recipe remotely, then locally.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	userID, err := s.requireUser("delete recipes")
	if err != nil {
		return err
	}

	if err := s.remote.DeleteRecipe(ctx, userID, id); err != nil {
		log.Printf("Error deleting recipe: %v", err)
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.recipes = removeByID(s.recipes, id, func(r Recipe) string { return r.ID })
	}
	return nil
}

// AddMealPlan saves an entry and appends it to the plan.
func (s *Store) AddMealPlan(ctx context.Context, in NewMealPlan) (MealPlanEntry, error) {
	userID, err := s.requireUser("plan meals")
	if err != nil {
		return MealPlanEntry{}, err
	}

	row, err := s.remote.InsertMealPlan(ctx, userID, in)
	if err != nil {
		log.Printf("Error adding meal plan: %v", err)
		return MealPlanEntry{}, fmt.Errorf("failed to add meal plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.mealPlans = append(s.mealPlans, row)
	}
	return row, nil
}

// DeleteMealPlan removes an entry remotely, then locally.
func (s *Store) DeleteMealPlan(ctx context.Context, id string) error {
	userID, err := s.requireUser("plan meals")
	if err != nil {
		return err
	}

	if err := s.remote.DeleteMealPlan(ctx, userID, id); err != nil {
		log.Printf("Error deleting meal plan: %v", err)
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.mealPlans = removeByID(s.mealPlans, id, func(m MealPlanEntry) string { return m.ID })
	}
	return nil
}

// AddChatMessage saves a message in the active session, starting one if
// none is active. If the conversation is reset while the insert is in
// flight the row is not cached and ErrSessionChanged is returned.
func (s *Store) AddChatMessage(ctx context.Context, in NewChatMessage) (ChatMessage, error) {
	row, _, err := s.addChatMessage(ctx, in, nil)
	return row, err
}

// addChatMessage is AddChatMessage that, given an epoch, refuses to write
// into a conversation other than the one that epoch belongs to. It returns
// the epoch the message was written under.
func (s *Store) addChatMessage(ctx context.Context, in NewChatMessage, epoch *uint64) (ChatMessage, uint64, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ChatMessage{}, 0, &LoginRequiredError{Action: "send messages"}
	}
	if epoch != nil && *epoch != s.chatEpoch {
		s.mu.Unlock()
		return ChatMessage{}, 0, ErrSessionChanged
	}
	if s.sessionID == "" {
		s.sessionID = s.newSessionID()
	}
	userID := s.user.ID
	in.SessionID = s.sessionID
	startEpoch := s.chatEpoch
	s.mu.Unlock()

	row, err := s.remote.InsertChatMessage(ctx, userID, in)
	if err != nil {
		log.Printf("Error adding chat message: %v", err)
		return ChatMessage{}, startEpoch, fmt.Errorf("failed to add chat message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedLocked(userID) || s.chatEpoch != startEpoch {
		return row, startEpoch, ErrSessionChanged
	}
	s.chat = append(s.chat, row)
	s.sessionID = row.SessionID
	return row, startEpoch, nil
}

// StartNewChatSession switches to a fresh session id and returns it. The
// cached history is kept.
func (s *Store) StartNewChatSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = s.newSessionID()
	s.chatEpoch++
	log.Printf("Starting new chat session: %s", s.sessionID)
	return s.sessionID
}

// ClearChatHistory deletes the user's whole conversation history remotely,
// then empties the cache and ends the active session.
func (s *Store) ClearChatHistory(ctx context.Context) error {
	userID, err := s.requireUser("clear chat history")
	if err != nil {
		return err
	}

	if err := s.remote.DeleteChatHistory(ctx, userID); err != nil {
		log.Printf("Error clearing chat history: %v", err)
		return fmt.Errorf("failed to clear chat history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownedLocked(userID) {
		s.chat = nil
		s.sessionID = ""
		s.chatEpoch++
	}
	return nil
}

// Snapshot is a consistent copy of everything cached.
type Snapshot struct {
	User        *User
	Ingredients []Ingredient
	Recipes     []Recipe
	MealPlans   []MealPlanEntry
	Chat        []ChatMessage
	SessionID   string
}

// Snapshot copies the cached state under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Ingredients: append([]Ingredient(nil), s.ingredients...),
		Recipes:     append([]Recipe(nil), s.recipes...),
		MealPlans:   append([]MealPlanEntry(nil), s.mealPlans...),
		Chat:        append([]ChatMessage(nil), s.chat...),
		SessionID:   s.sessionID,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) ownedLocked(userID string) bool {
	return s.user != nil && s.user.ID == userID
}

func removeByID[T any](list []T, id string, idOf func(T) string) []T {
	out := list[:0:0]
	for _, item := range list {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
