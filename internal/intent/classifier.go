// Package intent maps free-text user input to a structured intent: a
// response text plus zero or more action templates. Classification is an
// ordered list of rules evaluated top to bottom; the first matching rule
// wins and short-circuits the rest. The ordering is a designed tie-break:
// cross-module action rules come before per-module keyword tables, which
// come before the module default fallback, so specific intents can never be
// shadowed by generic ones.
package intent

import (
	"fmt"
	"strings"
	"sync"

	"lifehub/internal/directory"
	"lifehub/internal/domain"
	"lifehub/internal/logging"
)

// Result is the classifier's structured interpretation of one utterance.
type Result struct {
	Response  string
	Templates []domain.Template
}

// Classifier turns raw text into a Result. Classification is deterministic
// for a fixed rule set, keyword tables, and directory contents; it never
// fails - unrecognized input resolves to the module default.
type Classifier struct {
	mu       sync.RWMutex
	keywords *KeywordSet
	users    directory.UserLookup
	products directory.ProductCatalog
	rules    []rule
}

// rule pairs a match predicate over lowered input with a builder for the
// response and action templates. Slice order is evaluation priority.
type rule struct {
	name  string
	match func(lowered string) bool
	build func(c *Classifier, raw, lowered string) Result
}

// New builds a classifier with the built-in keyword tables.
func New(users directory.UserLookup, products directory.ProductCatalog) *Classifier {
	c := &Classifier{
		keywords: DefaultKeywordSet(),
		users:    users,
		products: products,
	}
	c.rules = crossModuleRules()
	return c
}

// SetKeywords swaps the keyword tables; used by the rule-file watcher.
func (c *Classifier) SetKeywords(set *KeywordSet) {
	if set == nil {
		return
	}
	c.mu.Lock()
	c.keywords = set
	c.mu.Unlock()
	logging.Intent("keyword tables reloaded (%d modules)", len(set.Keywords))
}

// Classify maps text to a Result for the active module. Total function: it
// always returns a usable response and never errors.
func (c *Classifier) Classify(text string, module domain.ModuleTag) Result {
	raw := strings.TrimSpace(text)
	lowered := strings.ToLower(raw)

	// 1. Cross-module action rules, first match wins. These apply regardless
	// of the active module: a finance action can be requested from chat.
	for _, r := range c.rules {
		if r.match(lowered) {
			logging.IntentDebug("rule %q matched module=%s input=%q", r.name, module, truncate(raw, 80))
			return r.build(c, raw, lowered)
		}
	}

	// 2. Module-scoped keyword table, declared order.
	c.mu.RLock()
	keywords := c.keywords
	c.mu.RUnlock()
	if resp, ok := keywords.Lookup(module, lowered); ok {
		logging.IntentDebug("keyword matched module=%s input=%q", module, truncate(raw, 80))
		return Result{Response: resp}
	}

	// 3. Module default fallback. A parsed entity with no matching rule is
	// dropped here on purpose: unrecognized modifiers produce no action.
	logging.IntentDebug("fallback module=%s input=%q", module, truncate(raw, 80))
	return Result{Response: keywords.Default(module)}
}

// =============================================================================
// CROSS-MODULE RULES
// =============================================================================

func crossModuleRules() []rule {
	return []rule{
		{
			name: "message",
			match: func(l string) bool {
				return strings.Contains(l, "message") &&
					(strings.Contains(l, "send") || strings.HasPrefix(l, "message") || strings.Contains(l, "write"))
			},
			build: buildMessage,
		},
		{
			name: "product_search",
			match: func(l string) bool {
				if strings.Contains(l, "find") || strings.Contains(l, "search") ||
					strings.Contains(l, "buy") || strings.Contains(l, "shop for") {
					return extractProductQuery(l) != ""
				}
				return false
			},
			build: buildProductSearch,
		},
		{
			name:  "budget_create",
			match: func(l string) bool { return strings.Contains(l, "budget") },
			build: buildBudget,
		},
		{
			name: "workout_plan",
			match: func(l string) bool {
				return strings.Contains(l, "workout") || strings.Contains(l, "training plan") ||
					strings.Contains(l, "exercise plan")
			},
			build: buildWorkout,
		},
		{
			name: "trip_plan",
			match: func(l string) bool {
				return strings.Contains(l, "trip") || strings.Contains(l, "travel") ||
					strings.Contains(l, "vacation") || extractDestination(l) != ""
			},
			build: buildTrip,
		},
		{
			name: "reminder",
			match: func(l string) bool {
				return strings.Contains(l, "remind") || strings.Contains(l, "reminder")
			},
			build: buildReminder,
		},
		{
			name: "social_post",
			match: func(l string) bool {
				return extractPostContent(l) != ""
			},
			build: buildSocialPost,
		},
	}
}

func buildMessage(c *Classifier, raw, lowered string) Result {
	name := extractRecipient(raw)
	if name == "" {
		return Result{
			Response: "Who should I message? I'll open the recipient picker.",
			Templates: []domain.Template{{
				Type:        domain.ActionMessage,
				Title:       "Send a message",
				Description: "Open the recipient picker",
				Payload:     domain.MessagePayload{},
			}},
		}
	}

	var matches []directory.User
	if c.users != nil {
		matches = c.users.Find(name)
	}
	if len(matches) == 0 {
		return Result{
			Response: fmt.Sprintf("I couldn't find anyone called %q. I can open the picker so you can search.", name),
			Templates: []domain.Template{{
				Type:        domain.ActionMessage,
				Title:       fmt.Sprintf("Search contacts for %q", name),
				Description: "Open the recipient picker with this name prefilled",
				Payload:     domain.MessagePayload{RecipientName: name},
			}},
		}
	}

	u := matches[0]
	return Result{
		Response: fmt.Sprintf("Ready to message %s.", u.Name),
		Templates: []domain.Template{{
			Type:        domain.ActionMessage,
			Title:       fmt.Sprintf("Message %s", u.Name),
			Description: fmt.Sprintf("Open a chat with %s (@%s)", u.Name, u.Handle),
			Payload:     domain.MessagePayload{RecipientID: u.ID, RecipientName: u.Name},
		}},
	}
}

func buildProductSearch(c *Classifier, raw, lowered string) Result {
	query := extractProductQuery(raw)
	response := fmt.Sprintf("Searching the catalog for %q.", query)
	if c.products != nil {
		if hits := c.products.Search(query); len(hits) > 0 {
			response = fmt.Sprintf("I found %d matches for %q. Run the search to see them.", len(hits), query)
		}
	}
	return Result{
		Response: response,
		Templates: []domain.Template{{
			Type:        domain.ActionProductSearch,
			Title:       fmt.Sprintf("Search for %q", query),
			Description: "Run this search in the marketplace",
			Payload:     domain.ProductSearchPayload{Query: query},
		}},
	}
}

// defaultBudgetAmount is suggested when the utterance names no amount.
const defaultBudgetAmount = 500

func buildBudget(c *Classifier, raw, lowered string) Result {
	amount, ok := extractAmount(raw)
	response := fmt.Sprintf("I'll set up a $%.0f monthly budget.", amount)
	if !ok {
		amount = defaultBudgetAmount
		response = fmt.Sprintf("How about a $%d monthly budget to start? You can adjust it later.", defaultBudgetAmount)
	}
	return Result{
		Response: response,
		Templates: []domain.Template{{
			Type:        domain.ActionBudgetCreate,
			Title:       fmt.Sprintf("Create $%.0f monthly budget", amount),
			Description: "Add this budget in the finance module",
			Payload:     domain.BudgetCreatePayload{Category: "general", Amount: amount, Period: "monthly"},
		}},
	}
}

func buildWorkout(c *Classifier, raw, lowered string) Result {
	days, ok := extractDays(raw)
	if !ok {
		days = 3
	}
	goal := "general fitness"
	switch {
	case strings.Contains(lowered, "strength") || strings.Contains(lowered, "muscle"):
		goal = "strength"
	case strings.Contains(lowered, "cardio") || strings.Contains(lowered, "endurance"):
		goal = "cardio"
	case strings.Contains(lowered, "weight loss") || strings.Contains(lowered, "lose weight"):
		goal = "weight loss"
	}
	return Result{
		Response: fmt.Sprintf("Here's a %d-day-per-week %s plan to get going.", days, goal),
		Templates: []domain.Template{{
			Type:        domain.ActionWorkoutPlan,
			Title:       fmt.Sprintf("Create %s plan (%dx/week)", goal, days),
			Description: "Add this plan in the fitness module",
			Payload:     domain.WorkoutPlanPayload{Goal: goal, DaysPerWeek: days, Level: "beginner"},
		}},
	}
}

func buildTrip(c *Classifier, raw, lowered string) Result {
	dest := extractDestination(raw)
	if dest == "" {
		dest = "somewhere new"
	}
	days, ok := extractDays(raw)
	if !ok {
		days = 7
	}
	return Result{
		Response: fmt.Sprintf("Let's plan %d days in %s.", days, dest),
		Templates: []domain.Template{{
			Type:        domain.ActionTripPlan,
			Title:       fmt.Sprintf("Plan trip to %s", dest),
			Description: fmt.Sprintf("Start a %d-day itinerary", days),
			Payload:     domain.TripPlanPayload{Destination: dest, Days: days},
		}},
	}
}

func buildReminder(c *Classifier, raw, lowered string) Result {
	task := extractReminderText(raw)
	if task == "" {
		task = "your reminder"
	}
	return Result{
		Response: fmt.Sprintf("I'll set a reminder: %s.", task),
		Templates: []domain.Template{{
			Type:        domain.ActionReminder,
			Title:       fmt.Sprintf("Remind me: %s", task),
			Description: "Schedule this reminder",
			Payload:     domain.ReminderPayload{Title: task},
		}},
	}
}

func buildSocialPost(c *Classifier, raw, lowered string) Result {
	content := extractPostContent(raw)
	return Result{
		Response: "Here's a draft post. Publish when you're happy with it.",
		Templates: []domain.Template{{
			Type:        domain.ActionSocialPost,
			Title:       "Publish post",
			Description: "Share this draft to your feed",
			Payload:     domain.SocialPostPayload{Content: content, Visibility: "friends"},
		}},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
