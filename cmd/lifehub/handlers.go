package main

import (
	"context"
	"fmt"

	"lifehub/internal/dispatch"
	"lifehub/internal/domain"
)

// registerHandlers installs the demo domain handlers. In the full
// application each of these is the real module mutation (budget creation,
// trip planner, reminder scheduler); here they confirm the typed payload
// they received so the engine's end-to-end flow is visible from the CLI.
func registerHandlers(reg *dispatch.Registry) error {
	handlers := map[domain.ActionType]dispatch.HandlerFunc{
		domain.ActionMessage: func(ctx context.Context, p domain.Payload) (string, error) {
			mp, ok := p.(domain.MessagePayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			if mp.RecipientName == "" {
				return "Recipient picker opened", nil
			}
			return fmt.Sprintf("Chat with %s opened", mp.RecipientName), nil
		},
		domain.ActionProductSearch: func(ctx context.Context, p domain.Payload) (string, error) {
			sp, ok := p.(domain.ProductSearchPayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Searching marketplace for %q", sp.Query), nil
		},
		domain.ActionBudgetCreate: func(ctx context.Context, p domain.Payload) (string, error) {
			bp, ok := p.(domain.BudgetCreatePayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Created $%.0f %s budget for %s", bp.Amount, bp.Period, bp.Category), nil
		},
		domain.ActionWorkoutPlan: func(ctx context.Context, p domain.Payload) (string, error) {
			wp, ok := p.(domain.WorkoutPlanPayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Created %s plan, %d days/week", wp.Goal, wp.DaysPerWeek), nil
		},
		domain.ActionTripPlan: func(ctx context.Context, p domain.Payload) (string, error) {
			tp, ok := p.(domain.TripPlanPayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Started %d-day itinerary for %s", tp.Days, tp.Destination), nil
		},
		domain.ActionSocialPost: func(ctx context.Context, p domain.Payload) (string, error) {
			sp, ok := p.(domain.SocialPostPayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Post published (%s)", sp.Visibility), nil
		},
		domain.ActionReminder: func(ctx context.Context, p domain.Payload) (string, error) {
			rp, ok := p.(domain.ReminderPayload)
			if !ok {
				return "", fmt.Errorf("unexpected payload %T", p)
			}
			return fmt.Sprintf("Reminder set: %s", rp.Title), nil
		},
	}

	for t, h := range handlers {
		if err := reg.Register(t, h); err != nil {
			return err
		}
	}
	return nil
}
