package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/config"
	"github.com/killallgit/compass/pkg/controllers"
	"github.com/killallgit/compass/pkg/export"
	"github.com/killallgit/compass/pkg/logger"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/render"
	"github.com/killallgit/compass/pkg/tui/theme"
	"golang.org/x/term"
)

// errAnswerFailed is returned when the agent's answer ended in an error
// entry, so scripts can tell from the exit code.
var errAnswerFailed = errors.New("the agent did not answer")

type headlessOptions struct {
	Prompt     string
	Agent      string
	ExportPath string
	Format     string
}

// runHeadless sends one prompt, prints the exchange and optionally exports
// it. The backend comes from cfg.
func runHeadless(ctx context.Context, cfg *config.Config, opts headlessOptions, stdout, stderr io.Writer) error {
	return runPrompt(ctx, cfg, newAPIClient(cfg), opts, stdout, stderr)
}

func runPrompt(ctx context.Context, cfg *config.Config, backend controllers.Backend, opts headlessOptions, stdout, stderr io.Writer) error {
	styles, highlighter := outputStyles(stdout)

	cc, err := newChatController(cfg, backend, notify.NewPrinter(stderr, styles), opts.Agent)
	if err != nil {
		return err
	}

	log := logger.WithComponent("headless")
	log.Info("sending prompt", "agent", cc.Agent(), "session", cc.Session())

	if err := cc.Send(ctx, opts.Prompt); err != nil {
		return err
	}

	entries := cc.Entries()
	if len(entries) > 1 {
		entries = entries[1:]
	}
	renderer := render.NewRenderer(styles, highlighter, cc.Agents().Name)
	if err := renderer.WriteTranscript(stdout, entries); err != nil {
		return fmt.Errorf("failed to print transcript: %w", err)
	}

	if opts.ExportPath != "" {
		if err := exportTranscript(cc, opts.ExportPath, opts.Format, cfg.Chat.ExportFormat); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Conversation exported to %s\n", opts.ExportPath)
	}

	if last, ok := cc.GetLastEntry(); ok && (last.IsError || last.Lifecycle == chat.LifecycleErrored) {
		return errAnswerFailed
	}
	return nil
}

func exportTranscript(cc *controllers.ChatController, path, format, fallback string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if format == "" {
		format = fallback
	}

	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	snapshot := &export.Snapshot{
		SessionID:  cc.Session(),
		Agent:      cc.Agent(),
		ExportedAt: time.Now().UTC(),
		Entries:    cc.Entries(),
	}
	if err := exporter.Export(snapshot, f); err != nil {
		return fmt.Errorf("failed to export conversation: %w", err)
	}
	return nil
}

// outputStyles picks colours for terminals and plain text for pipes and
// files.
func outputStyles(w io.Writer) (*theme.Styles, *render.Highlighter) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return theme.DefaultStyles(), render.DefaultHighlighter()
	}
	return theme.Plain(), render.NewHighlighter("noop", "")
}
