package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"kitchen-assistant/internal/clipper"
	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/metrics"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/shared"
	"kitchen-assistant/internal/shopping"
)

// contextBloatTokens is the prompt size above which the admin is alerted.
const contextBloatTokens = 4000

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UsageStore records and reports model usage.
type UsageStore interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Config carries the bot's collaborators.
type Config struct {
	Sessions       *kitchen.Sessions
	Chef           *recipe.Chef
	Clipper        *clipper.Clipper
	Usage          UsageStore
	AllowedUserIDs []int64
	AdminID        int64
	InventoryLimit int
	DataPath       string
	Timeout        time.Duration
	// WebhookSecret is the secret_token Telegram echoes in every webhook
	// request. NewBot generates one when empty.
	WebhookSecret  string
}

// Bot serves the kitchen assistant over Telegram.
type Bot struct {
	api            Sender
	sessions       *kitchen.Sessions
	chef           *recipe.Chef
	clipper        *clipper.Clipper
	usage          UsageStore
	allowed        map[int64]bool
	adminID        int64
	inventoryLimit int
	dataPath       string
	timeout        time.Duration
	secret         string
	now            func() time.Time

	wg sync.WaitGroup
}

// secretHeader carries the webhook secret_token on every update.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// NewBot initializes the Telegram API client and sets the webhook.
func NewBot(token, webhookURL string, cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	if cfg.WebhookSecret == "" {
		cfg.WebhookSecret = uuid.NewString()
	}

	// WebhookConfig has no secret_token field, so the call is made directly.
	resp, err := api.MakeRequest("setWebhook", tgbotapi.Params{
		"url":          webhookURL,
		"secret_token": cfg.WebhookSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return newBot(api, cfg), nil
}

func newBot(api Sender, cfg Config) *Bot {
	allowed := make(map[int64]bool, len(cfg.AllowedUserIDs))
	for _, id := range cfg.AllowedUserIDs {
		allowed[id] = true
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Bot{
		api:            api,
		sessions:       cfg.Sessions,
		chef:           cfg.Chef,
		clipper:        cfg.Clipper,
		usage:          cfg.Usage,
		allowed:        allowed,
		adminID:        cfg.AdminID,
		inventoryLimit: cfg.InventoryLimit,
		dataPath:       cfg.DataPath,
		timeout:        timeout,
		secret:         cfg.WebhookSecret,
		now:            time.Now,
	}
}

// UserFor maps a Telegram account to its kitchen user.
func UserFor(from *tgbotapi.User) kitchen.User {
	return kitchen.User{ID: "telegram-" + strconv.FormatInt(from.ID, 10)}
}

// HandleWebhook accepts an update from Telegram and processes it in the
// background so Telegram gets its answer immediately. Requests without the
// webhook secret are rejected.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if !b.fromTelegram(r) {
		log.Printf("Rejected webhook request from %s: missing or wrong secret token", r.RemoteAddr)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Error parsing update: %v", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		log.Printf("Unauthorized access attempt from UserID: %d (@%s)", msg.From.ID, msg.From.UserName)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		b.handleMessage(ctx, msg)
	}()
}

func (b *Bot) fromTelegram(r *http.Request) bool {
	got := r.Header.Get(secretHeader)
	return b.secret != "" && subtle.ConstantTimeCompare([]byte(got), []byte(b.secret)) == 1
}

// Wait blocks until in-flight updates are done.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	store := b.sessions.For(UserFor(msg.From), "")
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, store, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClip(ctx, store, chatID, text)
		return
	}
	b.handleChat(ctx, store, chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, store *kitchen.Store, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "new":
		store.StartNewChatSession()
		b.reply(chatID, "🆕 Started a new conversation.")
	case "clear":
		if err := store.ClearChatHistory(ctx); err != nil {
			b.replyError(chatID, "clearing chat history", err)
			return
		}
		b.reply(chatID, "🧹 Chat history cleared.")
	case "save":
		b.handleSave(ctx, store, chatID)
	case "pantry":
		if err := store.FetchIngredients(ctx); err != nil {
			b.replyError(chatID, "loading your pantry", err)
			return
		}
		b.reply(chatID, formatPantry(store.Ingredients(), b.now()))
	case "add":
		b.handleAdd(ctx, store, chatID, args)
	case "week":
		if err := store.FetchMealPlans(ctx); err != nil {
			b.replyError(chatID, "loading your meal plan", err)
			return
		}
		b.reply(chatID, formatWeek(kitchen.MealsForWeek(store.MealPlans(), b.now())))
	case "shop":
		b.handleShopping(ctx, store, chatID)
	case "tips":
		b.handleTips(ctx, store, chatID)
	case "sub":
		b.handleSubstitutions(ctx, chatID, args)
	case "metrics":
		b.handleMetrics(ctx, msg)
	default:
		b.reply(chatID, "Unknown command. Send /help to see what I can do.")
	}
}

func (b *Bot) handleShopping(ctx context.Context, store *kitchen.Store, chatID int64) {
	for _, fetch := range []func(context.Context) error{store.FetchMealPlans, store.FetchRecipes, store.FetchIngredients} {
		if err := fetch(ctx); err != nil {
			b.replyError(chatID, "building your shopping list", err)
			return
		}
	}
	week := kitchen.MealsForWeek(store.MealPlans(), b.now())
	b.reply(chatID, formatShopping(shopping.ForWeek(week, store.Recipes(), store.Ingredients())))
}

func (b *Bot) handleChat(ctx context.Context, store *kitchen.Store, chatID int64, text string) {
	status, err := b.api.Send(tgbotapi.NewMessage(chatID, "🧑‍🍳 Thinking..."))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	// On failure the cached inventory is used.
	_ = store.FetchIngredients(ctx)

	assistant := kitchen.NewAssistant(store, b.chef, b, b.inventoryLimit)
	reply, err := assistant.Send(ctx, text, nil)
	switch {
	case errors.Is(err, kitchen.ErrSessionChanged):
		b.edit(chatID, status.MessageID, "This conversation was reset while I was working, so I dropped that answer.")
	case err != nil && reply.Message.ID != "":
		b.edit(chatID, status.MessageID, escape(reply.Message.Content))
	case err != nil:
		log.Printf("Error handling chat message: %v", err)
		b.edit(chatID, status.MessageID, "❌ "+escape(llm.UserMessage(err)))
	case reply.Recipe != nil:
		b.edit(chatID, status.MessageID, formatRecipeMarkdown(*reply.Recipe, reply.Confidence))
	default:
		b.edit(chatID, status.MessageID, escape(reply.Message.Content))
	}
}

func (b *Bot) handleClip(ctx context.Context, store *kitchen.Store, chatID int64, url string) {
	status, err := b.api.Send(tgbotapi.NewMessage(chatID, "✂️ Clipping recipe..."))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	clip, err := b.clipper.ClipURL(ctx, url)
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		b.edit(chatID, status.MessageID, "❌ Could not import a recipe from that page.")
		return
	}
	b.RecordMeta(ctx, clip.Meta)

	rec := clip.Recipe
	store.SetCurrentRecipe(&rec)
	b.edit(chatID, status.MessageID, formatRecipeMarkdown(rec, clip.Confidence))
}

func (b *Bot) handleSave(ctx context.Context, store *kitchen.Store, chatID int64) {
	current, ok := store.CurrentRecipe()
	if !ok {
		b.reply(chatID, "There is no recipe to save yet. Ask me for one first.")
		return
	}
	saved, err := store.SaveGeneratedRecipe(ctx, current)
	if err != nil {
		b.replyError(chatID, "saving the recipe", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Saved *%s* to your recipes.", escape(saved.Title)))
}

// handleAdd parses "/add <quantity> <unit> <name>".
func (b *Bot) handleAdd(ctx context.Context, store *kitchen.Store, chatID int64, args string) {
	in, err := parseAddArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /add <quantity> <unit> <name>, e.g. /add 2 kg potatoes")
		return
	}
	ing, err := store.AddIngredient(ctx, in)
	if err != nil {
		b.replyError(chatID, "adding the ingredient", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("➕ Added %s %s %s.", formatQuantity(ing.Quantity), escape(ing.Unit), escape(ing.Name)))
}

func parseAddArgs(args string) (kitchen.NewIngredient, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return kitchen.NewIngredient{}, errors.New("expected quantity, unit and name")
	}
	qty, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || qty <= 0 {
		return kitchen.NewIngredient{}, fmt.Errorf("invalid quantity %q", fields[0])
	}
	return kitchen.NewIngredient{
		Name:     strings.Join(fields[2:], " "),
		Quantity: qty,
		Unit:     fields[1],
		Category: "other",
	}, nil
}

func (b *Bot) handleTips(ctx context.Context, store *kitchen.Store, chatID int64) {
	current, ok := store.CurrentRecipe()
	if !ok {
		b.reply(chatID, "Ask me for a recipe first, then I can share tips for it.")
		return
	}
	tips, meta, err := b.chef.CookingTips(ctx, current.Text())
	if err != nil {
		b.reply(chatID, "❌ "+escape(llm.UserMessage(err)))
		return
	}
	b.RecordMeta(ctx, meta)
	b.reply(chatID, formatList("💡 *Tips for "+escape(current.Title)+"*", tips))
}

func (b *Bot) handleSubstitutions(ctx context.Context, chatID int64, ingredient string) {
	if ingredient == "" {
		b.reply(chatID, "Usage: /sub <ingredient>, e.g. /sub buttermilk")
		return
	}
	subs, meta, err := b.chef.Substitutions(ctx, ingredient)
	if err != nil {
		b.reply(chatID, "❌ "+escape(llm.UserMessage(err)))
		return
	}
	b.RecordMeta(ctx, meta)
	b.reply(chatID, formatList("🔄 *Instead of "+escape(ingredient)+"*", subs))
}

func (b *Bot) handleMetrics(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminID == 0 || msg.From.ID != b.adminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		log.Printf("Error fetching metrics: %v", err)
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	report := metrics.Report(metrics.GetSysHealth(b.dataPath), usage)
	b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "📊 Usage & Health Report\n\n"+report))
}

// RecordMeta stores usage and alerts the admin about oversized prompts.
func (b *Bot) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	if b.usage == nil || meta.AgentName == "" {
		return nil
	}
	if meta.Usage.PromptTokens > contextBloatTokens {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			meta.AgentName, escape(meta.Usage.Model), meta.Usage.PromptTokens))
	}
	if err := b.usage.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record usage for %s: %v", meta.AgentName, err)
		return err
	}
	return nil
}

func (b *Bot) sendAdminAlert(text string) {
	if b.adminID == 0 {
		return
	}
	b.reply(b.adminID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) replyError(chatID int64, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	b.reply(chatID, "❌ Something went wrong while "+action+". Please try again.")
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit message %d: %v", messageID, err)
	}
}
