package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lifehub/internal/directory"
	"lifehub/internal/dispatch"
	"lifehub/internal/domain"
	"lifehub/internal/engine"
)

var chatModule string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive assistant session",
	Long: `Starts a REPL against the conversational action engine.

Type a message and the assistant replies with advice and, where it
recognized an actionable intent, numbered actions. Type the number of an
action to dispatch it. Commands: /module <name> switches module, /quit
exits.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModule, "module", "m", "chat", "starting module (finance, fitness, marketplace, travel, social, chat)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	module := domain.ModuleTag(chatModule)
	if !module.Valid() {
		return fmt.Errorf("unknown module %q", chatModule)
	}

	eng, err := engine.New(cfg, engine.Deps{
		Users: directory.NewUsers(
			directory.User{ID: "u1", Name: "Sarah", Handle: "sarah"},
			directory.User{ID: "u2", Name: "Sam", Handle: "sam"},
			directory.User{ID: "u3", Name: "Maya", Handle: "maya_runs"},
		),
		Products: directory.NewProducts(
			directory.Product{ID: "p1", Name: "Wireless Headphones", Category: "electronics", Price: 89},
			directory.Product{ID: "p2", Name: "Yoga Mat", Category: "fitness", Price: 25},
		),
		Emitter: dispatch.EmitterFunc(func(n dispatch.Notification) {
			fmt.Printf("  [%s] %s: %s\n", n.Severity, n.Title, n.Message)
		}),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := eng.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if terr := eng.Teardown(context.Background()); terr != nil {
			logger.Sugar().Warnf("teardown: %v", terr)
		}
	}()

	if err := registerHandlers(eng.Registry); err != nil {
		return err
	}

	fmt.Printf("lifehub assistant - module %s. /module <name> to switch, /quit to exit.\n", module)

	// pending holds the actions from the last assistant turn, addressable
	// by number.
	var pending []*domain.Action

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", module)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return nil
		case strings.HasPrefix(line, "/module "):
			next := domain.ModuleTag(strings.TrimSpace(strings.TrimPrefix(line, "/module ")))
			if !next.Valid() {
				fmt.Printf("unknown module %q\n", next)
				continue
			}
			module = next
			pending = nil
			continue
		}

		// A bare number dispatches a pending action.
		if idx, err := strconv.Atoi(line); err == nil {
			if idx < 1 || idx > len(pending) {
				fmt.Println("no such action")
				continue
			}
			outcome := eng.Dispatcher.Dispatch(ctx, pending[idx-1])
			if !outcome.OK {
				fmt.Printf("  failed: %s\n", outcome.Reason)
			}
			continue
		}

		eng.Manager.StartOrAppend(module, line)
		msg, err := eng.Manager.CompleteTurn(ctx, module)
		if err != nil {
			fmt.Printf("  turn failed: %v\n", err)
			continue
		}
		fmt.Printf("assistant: %s\n", msg.Content)
		pending = msg.Actions
		for i, a := range pending {
			fmt.Printf("  %d) %s - %s\n", i+1, a.Title, a.Description)
		}
	}
}
