package intent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lifehub/internal/domain"
)

// =============================================================================
// MODULE KEYWORD TABLES
// =============================================================================
// Keyword matching is an explicit, declared priority list per module: entries
// are tried in slice order and the first keyword found as a substring of the
// input wins. Multiple keywords may co-occur in one utterance, so list order
// is the tie-break and must be preserved.

// KeywordResponse pairs a trigger keyword with its canned advice text.
type KeywordResponse struct {
	Keyword  string `yaml:"keyword"`
	Response string `yaml:"response"`
}

// KeywordSet holds the per-module keyword lists and default fallbacks.
type KeywordSet struct {
	Keywords map[domain.ModuleTag][]KeywordResponse
	Defaults map[domain.ModuleTag]string
}

// DefaultKeywordSet returns the built-in keyword tables.
func DefaultKeywordSet() *KeywordSet {
	return &KeywordSet{
		Keywords: map[domain.ModuleTag][]KeywordResponse{
			domain.ModuleFinance: {
				{Keyword: "save", Response: "A good starting point is the 50/30/20 split: 50% needs, 30% wants, 20% savings. Automating a transfer on payday makes it stick."},
				{Keyword: "invest", Response: "Before investing, make sure you have 3-6 months of expenses in an emergency fund. Low-cost index funds are the usual first step."},
				{Keyword: "debt", Response: "List your debts by interest rate and pay the highest rate first (avalanche method). The snowball method works too if you need quick wins."},
				{Keyword: "spend", Response: "Your biggest spending categories this month are worth a look. Setting a category budget can cap the drift."},
			},
			domain.ModuleFitness: {
				{Keyword: "protein", Response: "A common target is 1.6-2.2g of protein per kg of body weight daily, spread across meals."},
				{Keyword: "sleep", Response: "Recovery happens during sleep. Aim for 7-9 hours; training hard on chronic short sleep stalls progress."},
				{Keyword: "stretch", Response: "Dynamic stretches before training, static holds after. 10 minutes post-workout covers the main muscle groups."},
				{Keyword: "run", Response: "Build weekly mileage by no more than 10% and keep most runs at an easy, conversational pace."},
			},
			domain.ModuleMarketplace: {
				{Keyword: "deal", Response: "Price history matters more than the discount badge. I can watch an item and flag a genuine drop."},
				{Keyword: "return", Response: "Most sellers here accept returns within 30 days in original condition. Check the listing's return panel for specifics."},
				{Keyword: "shipping", Response: "Standard shipping runs 3-5 business days; express is 1-2. Free shipping usually kicks in over $35."},
			},
			domain.ModuleTravel: {
				{Keyword: "pack", Response: "Roll, don't fold, and keep one day's essentials in your carry-on. A packing list per trip type saves rethinking it."},
				{Keyword: "visa", Response: "Visa rules depend on your passport and destination. Check the official embassy page; some e-visas take under 72 hours."},
				{Keyword: "flight", Response: "Fares are usually lowest 3-8 weeks out for short haul and 2-5 months for long haul. Midweek departures tend to be cheaper."},
			},
			domain.ModuleSocial: {
				{Keyword: "caption", Response: "Short captions with one concrete detail outperform generic ones. Ask a question if you want comments."},
				{Keyword: "follower", Response: "Consistency beats volume: a steady posting rhythm and replying to comments grows reach more than posting sprees."},
			},
			domain.ModuleChat: {
				{Keyword: "hello", Response: "Hi! I can help across your finances, fitness, shopping, travel, and social feeds. What do you need?"},
				{Keyword: "thank", Response: "Anytime! Let me know if there's anything else."},
				{Keyword: "help", Response: "Try things like \"create a 500 dollar budget\", \"plan a trip to Lisbon\", or \"send a message to sam\"."},
			},
		},
		Defaults: map[domain.ModuleTag]string{
			domain.ModuleFinance:     "I can help with budgets, spending insights, and saving goals. Try \"create a budget\" or ask about a spending category.",
			domain.ModuleFitness:     "I can put together workout plans and answer training questions. Try \"create a workout plan\".",
			domain.ModuleMarketplace: "I can search the catalog and track deals. Try \"find product headphones\".",
			domain.ModuleTravel:      "I can plan trips and answer travel questions. Try \"plan a trip to Tokyo\".",
			domain.ModuleSocial:      "I can draft posts and suggest captions. Try \"write a post about my morning run\".",
			domain.ModuleChat:        "I didn't catch that. I can act across all your modules - budgets, workouts, shopping, trips, posts, and reminders.",
		},
	}
}

// Lookup runs the ordered keyword scan for a module. Returns the canned
// response and true on the first keyword found in the lowered input.
func (k *KeywordSet) Lookup(module domain.ModuleTag, lowered string) (string, bool) {
	for _, entry := range k.Keywords[module] {
		if entry.Keyword != "" && containsKeyword(lowered, entry.Keyword) {
			return entry.Response, true
		}
	}
	return "", false
}

// Default returns the module fallback response.
func (k *KeywordSet) Default(module domain.ModuleTag) string {
	if d, ok := k.Defaults[module]; ok {
		return d
	}
	return k.Defaults[domain.ModuleChat]
}

func containsKeyword(lowered, keyword string) bool {
	// Substring match: "saving" triggers "save". Keywords are stored lowercase.
	return keyword != "" && strings.Contains(lowered, keyword)
}

// =============================================================================
// YAML OVERLAYS
// =============================================================================
// Operators can override per-module tables with a YAML file; list order in
// the file is the priority order. Modules absent from the file keep their
// built-in entries.

type keywordFile struct {
	Modules map[string]moduleOverlay `yaml:"modules"`
}

type moduleOverlay struct {
	Default  string            `yaml:"default"`
	Keywords []KeywordResponse `yaml:"keywords"`
}

// LoadKeywordFile reads a YAML overlay and merges it over the built-in set.
func LoadKeywordFile(path string) (*KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	var kf keywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keyword file %s: %w", path, err)
	}

	set := DefaultKeywordSet()
	for name, overlay := range kf.Modules {
		module := domain.ModuleTag(name)
		if !module.Valid() {
			return nil, fmt.Errorf("keyword file %s: unknown module %q", path, name)
		}
		if len(overlay.Keywords) > 0 {
			set.Keywords[module] = overlay.Keywords
		}
		if overlay.Default != "" {
			set.Defaults[module] = overlay.Default
		}
	}
	return set, nil
}
