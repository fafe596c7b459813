package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/killallgit/compass/pkg/config"
	"github.com/killallgit/compass/pkg/mockserver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a local stand-in for the dashboard backend",
	Long: `Serves the chat, streaming, session and auth endpoints from memory so the
client can be tried without the real backend. Answers echo the question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Mock.Addr
		}
		requireAuth, _ := cmd.Flags().GetBool("require-auth")
		users, _ := cmd.Flags().GetStringToString("user")
		delay, _ := cmd.Flags().GetDuration("token-delay")
		docs, _ := cmd.Flags().GetStringSlice("document")

		log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			log = log.Level(lvl)
		}

		var userTable map[string]string
		if len(users) > 0 {
			userTable = users
		}

		srv := mockserver.New(mockserver.Options{
			RequireAuth: requireAuth,
			Users:       userTable,
			Documents:   docs,
			TokenDelay:  delay,
			Logger:      log,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	mockServerCmd.Flags().String("addr", "", "listen address (default mock.addr)")
	mockServerCmd.Flags().Bool("require-auth", false, "reject chat calls without a bearer token")
	mockServerCmd.Flags().StringToString("user", nil, "accepted credentials as email=password (repeatable)")
	mockServerCmd.Flags().Duration("token-delay", 40*time.Millisecond, "pause between streamed tokens")
	mockServerCmd.Flags().StringSlice("document", nil, "uploaded document names answers may cite (default cv.pdf)")
	rootCmd.AddCommand(mockServerCmd)
}
