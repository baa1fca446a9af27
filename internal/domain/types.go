// Package domain provides shared type definitions used across lifehub packages.
// This package exists to break import cycles between intent, conversation, and
// dispatch. Types in this package should be foundational data structures with
// no complex dependencies.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MODULE TAGS
// =============================================================================

// ModuleTag identifies one of the fixed application modules that scopes a
// conversation and its default responses.
type ModuleTag string

const (
	ModuleFinance     ModuleTag = "finance"
	ModuleFitness     ModuleTag = "fitness"
	ModuleMarketplace ModuleTag = "marketplace"
	ModuleTravel      ModuleTag = "travel"
	ModuleSocial      ModuleTag = "social"
	ModuleChat        ModuleTag = "chat"
)

// Modules lists every valid module tag in declaration order.
func Modules() []ModuleTag {
	return []ModuleTag{
		ModuleFinance,
		ModuleFitness,
		ModuleMarketplace,
		ModuleTravel,
		ModuleSocial,
		ModuleChat,
	}
}

// Valid reports whether the tag is a member of the closed module set.
func (m ModuleTag) Valid() bool {
	switch m {
	case ModuleFinance, ModuleFitness, ModuleMarketplace, ModuleTravel, ModuleSocial, ModuleChat:
		return true
	}
	return false
}

// =============================================================================
// CONVERSATION / MESSAGE
// =============================================================================

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation. Actions are only populated on
// assistant messages.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Actions   []*Action `json:"actions,omitempty"`
}

// Conversation holds the ordered message log for one module. Messages are
// append-only: they are never reordered or truncated once appended.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Module    ModuleTag `json:"module"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// LastUserMessage returns the most recent user message, or nil if none exists.
func (c *Conversation) LastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return &c.Messages[i]
		}
	}
	return nil
}
