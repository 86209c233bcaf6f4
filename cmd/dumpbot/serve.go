package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tsukumogami/dumpbot/internal/bot"
	"github.com/tsukumogami/dumpbot/internal/buildinfo"
	"github.com/tsukumogami/dumpbot/internal/config"
	"github.com/tsukumogami/dumpbot/internal/health"
	"github.com/tsukumogami/dumpbot/internal/httputil"
	"github.com/tsukumogami/dumpbot/internal/log"
	"github.com/tsukumogami/dumpbot/internal/secrets"
	"github.com/tsukumogami/dumpbot/internal/telegram"
)

var (
	serveHealthAddr  string
	serveAPIEndpoint string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the Telegram bot until interrupted.

The bot long-polls Telegram for /dump and /cancel commands from the users
listed in the admins setting. Commands from anyone else are ignored.

Required settings: repo, workflow, admins, and the telegram_token and
github_token secrets.

Examples:
  dumpbot serve
  dumpbot serve --health-addr :8080`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSettings()
		logger := log.Default()

		if cmd.Flags().Changed("health-addr") {
			cfg.HealthAddr = serveHealthAddr
		}
		if len(cfg.Admins) == 0 {
			logger.Warn("no admins configured, every command will be ignored")
		}

		tgToken, err := secrets.Get(secrets.TelegramToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitConfig)
		}
		wf := mustWorkflowClient(cfg)

		opts := httputil.DefaultOptions()
		opts.Timeout = config.GetAPITimeout() + telegram.PollTimeout*time.Second
		api, err := telegram.Dial(tgToken, serveAPIEndpoint, httputil.NewAPIClient(opts), logger)
		if err != nil {
			fail(err, cfg)
		}

		router := bot.NewRouter(bot.NewAllowList(cfg.Admins...), newValidator(), wf, bot.WithLogger(logger))
		tg := telegram.New(api, router,
			telegram.WithMaxConcurrent(cfg.MaxConcurrent),
			telegram.WithLogger(logger),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting bot",
			"bot", api.Self.UserName,
			"repo", wf.Repo(),
			"admins", len(cfg.Admins),
			"version", buildinfo.Version(),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return tg.Run(gctx)
		})
		if cfg.HealthAddr != "" {
			srv := health.NewServer(buildinfo.Version(), logger, debugFlag)
			g.Go(func() error {
				return srv.Serve(gctx, cfg.HealthAddr)
			})
		}

		if err := g.Wait(); err != nil {
			stop()
			fail(err, cfg)
		}
		logger.Info("bot stopped")
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHealthAddr, "health-addr", "", "Serve /healthz on this address (overrides health_addr)")
	serveCmd.Flags().StringVar(&serveAPIEndpoint, "api-endpoint", "", "Telegram Bot API endpoint format (for self-hosted Bot API servers)")
}
