package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/killallgit/compass/pkg/config"
	"github.com/killallgit/compass/pkg/export"
	"github.com/killallgit/compass/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "Chat with your career dashboard agents from the terminal",
	Long: `Compass talks to the dashboard backend agents: the knowledge assistant,
the research specialist, the multi-agent system and the streaming memory manager.

Without --prompt it opens an interactive chat screen. With --prompt (or
--headless) it sends one message, prints the conversation and exits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.Get()
		prompt := viper.GetString("prompt")
		headless := viper.GetBool("headless")

		if headless || prompt != "" {
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("--headless requires --prompt")
			}
			return runHeadless(ctx, cfg, headlessOptions{
				Prompt:     prompt,
				Agent:      cfg.Chat.DefaultAgent,
				ExportPath: viper.GetString("export"),
				Format:     viper.GetString("format"),
			}, cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
		return runInteractive(ctx, cfg)
	},
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.compass/settings.yaml or $XDG_CONFIG_HOME/.compass/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("api-url", "", "dashboard backend base URL")
	viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.PersistentFlags().StringP("agent", "a", "", "agent to chat with (see `compass agents`)")
	viper.BindPFlag("chat.default_agent", rootCmd.PersistentFlags().Lookup("agent"))

	rootCmd.Flags().StringP("prompt", "p", "", "send a single message without entering the TUI")
	viper.BindPFlag("prompt", rootCmd.Flags().Lookup("prompt"))

	rootCmd.Flags().BoolP("headless", "H", false, "run without TUI (requires --prompt)")
	viper.BindPFlag("headless", rootCmd.Flags().Lookup("headless"))

	rootCmd.Flags().StringP("export", "e", "", "write the conversation to this file after a headless run")
	viper.BindPFlag("export", rootCmd.Flags().Lookup("export"))

	rootCmd.Flags().String("format", "", "export format: "+strings.Join(export.Formats, ", ")+" (default from the file extension)")
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
}

// initConfig loads settings and starts the file logger.
func initConfig() error {
	if cfgFile == "" {
		if err := config.InitializeDefaults(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if _, err := config.Load(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(); err != nil {
		return err
	}
	if used := config.GetConfigFileUsed(); used != "" {
		logger.Debug("Using config file: %s", used)
	}
	return nil
}
