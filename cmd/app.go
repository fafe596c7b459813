package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/auth"
	"github.com/killallgit/compass/pkg/config"
	"github.com/killallgit/compass/pkg/controllers"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/stream"
	"github.com/killallgit/compass/pkg/tui"
)

func newTokenStore(cfg *config.Config) auth.TokenStore {
	return auth.NewFileStore(cfg.Auth.CredentialsFile)
}

func newAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenStore(newTokenStore(cfg)),
	)
}

func newChatController(cfg *config.Config, backend controllers.Backend, notifier notify.Notifier, agent string) (*controllers.ChatController, error) {
	registry := agents.NewRegistry()
	if agent == "" {
		agent = cfg.Chat.DefaultAgent
	}
	if _, err := registry.Get(agent); err != nil {
		return nil, fmt.Errorf("%w (run `compass agents` to list them)", err)
	}

	return controllers.NewChatController(backend, registry, notifier, controllers.Options{
		Agent:              agent,
		MaxResults:         cfg.API.MaxResults,
		CustomInstructions: cfg.Chat.CustomInstructions,
		Stream: stream.Options{
			SuccessMarker: cfg.Stream.SuccessMarker,
			IdleTimeout:   cfg.Stream.IdleTimeout,
			ReadBuffer:    cfg.Stream.ReadBuffer,
		},
	})
}

func runInteractive(ctx context.Context, cfg *config.Config) error {
	toasts := notify.NewQueue(notify.DefaultTTL)
	cc, err := newChatController(cfg, newAPIClient(cfg), toasts, "")
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	if err := tui.NewApp(screen, cc, toasts).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
