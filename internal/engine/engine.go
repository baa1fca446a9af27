// Package engine assembles the conversational action engine: state
// container, intent classifier, conversation manager, action dispatcher, and
// advisory feed. Everything is explicitly constructed and dependency
// injected - there are no package-level singletons - with an Init/Teardown
// lifecycle owning subscriptions and the audit store.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lifehub/internal/advisory"
	"lifehub/internal/clock"
	"lifehub/internal/config"
	"lifehub/internal/conversation"
	"lifehub/internal/directory"
	"lifehub/internal/dispatch"
	"lifehub/internal/domain"
	"lifehub/internal/intent"
	"lifehub/internal/logging"
	"lifehub/internal/state"
	"lifehub/internal/store"
)

// Deps are the external collaborators injected at construction. Clock may be
// nil (system clock); Emitter may be nil (notifications dropped).
type Deps struct {
	Users    directory.UserLookup
	Products directory.ProductCatalog
	Emitter  dispatch.Emitter
	Clock    clock.Clock
}

// Engine wires the assistant core together.
type Engine struct {
	Container  *state.Memory
	Classifier *intent.Classifier
	Manager    *conversation.Manager
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher
	Feed       *advisory.Feed

	cfg     *config.Config
	clk     clock.Clock
	store   *store.Store
	watcher *intent.RuleWatcher
}

// New builds an engine from configuration and collaborators. Nothing runs
// until Init.
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}

	container := state.NewMemory()
	classifier := intent.New(deps.Users, deps.Products)
	manager := conversation.New(classifier, clk, cfg.Engine.TurnLatency, container)
	registry := dispatch.NewRegistry()
	feed := advisory.NewFeed(clk.Now)

	e := &Engine{
		Container:  container,
		Classifier: classifier,
		Manager:    manager,
		Registry:   registry,
		Feed:       feed,
		cfg:        cfg,
		clk:        clk,
	}

	var audit dispatch.AuditLog
	if cfg.Engine.StorePath != "" {
		st, err := store.Open(cfg.Engine.StorePath)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.store = st
		audit = st
	}
	e.Dispatcher = dispatch.New(registry, deps.Emitter, audit)
	return e, nil
}

// Store exposes the audit store; nil when disabled.
func (e *Engine) Store() *store.Store { return e.store }

// Init prepares the engine: keyword overlays, rule file watching, and demo
// fixtures. Seeding tasks run concurrently; the first error wins.
func (e *Engine) Init(ctx context.Context) error {
	if path := e.cfg.Engine.KeywordRulesPath; path != "" {
		if set, err := intent.LoadKeywordFile(path); err == nil {
			e.Classifier.SetKeywords(set)
		} else {
			logging.Get(logging.CategoryEngine).Warnf("keyword overlay not loaded: %v", err)
		}
		w, err := intent.NewRuleWatcher(path, e.Classifier)
		if err != nil {
			return fmt.Errorf("engine init: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("engine init: %w", err)
		}
		e.watcher = w
	}

	if e.cfg.Engine.SeedFixtures {
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error { return e.seedInsights() })
		g.Go(func() error { return e.seedRecommendations() })
		g.Go(func() error { return e.seedPredictions() })
		if err := g.Wait(); err != nil {
			return fmt.Errorf("engine init: %w", err)
		}
	}

	logging.Engine("engine initialized (latency=%v, store=%q)", e.cfg.Engine.TurnLatency, e.cfg.Engine.StorePath)
	return nil
}

// Teardown snapshots conversations, stops the watcher, drops subscriptions,
// and closes the store. Safe to call once after Init.
func (e *Engine) Teardown(ctx context.Context) error {
	if e.watcher != nil {
		e.watcher.Stop()
	}

	var firstErr error
	if e.store != nil {
		for _, module := range e.Manager.Modules() {
			if conv := e.Manager.Get(module); conv != nil {
				if err := e.store.SaveConversation(ctx, conv); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	e.Container.Teardown()
	logging.Engine("engine torn down")
	return firstErr
}

// =============================================================================
// DEMO FIXTURES
// =============================================================================

func (e *Engine) seedInsights() error {
	for _, item := range []domain.AdvisoryItem{
		{
			Kind: domain.KindInsight, Module: domain.ModuleFinance,
			Title: "Dining out is up 24%", Body: "You spent $182 on restaurants this month, up from $147.",
			Confidence: 0.92,
			Template: &domain.Template{
				Type: domain.ActionBudgetCreate, Title: "Cap dining at $150/month",
				Description: "Create a dining budget",
				Payload:     domain.BudgetCreatePayload{Category: "dining", Amount: 150, Period: "monthly"},
			},
		},
		{
			Kind: domain.KindInsight, Module: domain.ModuleFitness,
			Title: "Consistency streak", Body: "You trained 4 times a week for 3 weeks straight.",
			Confidence: 0.88,
		},
	} {
		e.Feed.Add(item)
	}
	return nil
}

func (e *Engine) seedRecommendations() error {
	for _, item := range []domain.AdvisoryItem{
		{
			Kind: domain.KindRecommendation, Module: domain.ModuleTravel,
			Title: "Book Lisbon early", Body: "Fares to Lisbon for your saved dates are trending up.",
			Priority: domain.PriorityHigh,
			Template: &domain.Template{
				Type: domain.ActionTripPlan, Title: "Plan trip to Lisbon",
				Description: "Start a 5-day itinerary",
				Payload:     domain.TripPlanPayload{Destination: "Lisbon", Days: 5},
			},
		},
		{
			Kind: domain.KindRecommendation, Module: domain.ModuleSocial,
			Title: "Share your streak", Body: "Posts about milestones get 2x the engagement.",
			Priority: domain.PriorityMedium,
			Template: &domain.Template{
				Type: domain.ActionSocialPost, Title: "Publish post",
				Description: "Share your training streak",
				Payload:     domain.SocialPostPayload{Content: "Three weeks of 4x workouts!", Visibility: "friends"},
			},
		},
	} {
		e.Feed.Add(item)
	}
	return nil
}

func (e *Engine) seedPredictions() error {
	e.Feed.Add(domain.AdvisoryItem{
		Kind: domain.KindPrediction, Module: domain.ModuleFinance,
		Title: "Month-end balance", Body: "At the current pace you'll end the month about $240 under budget.",
		Confidence: 0.71,
	})
	return nil
}
