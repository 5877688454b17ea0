package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quizhub-service/internal/ai"
	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/config"
	"quizhub-service/internal/logger"
	transport "quizhub-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.SeedDemo() {
		if err := seedDemo(ctx, b.store, log); err != nil {
			return err
		}
	}

	if cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == "change-me-in-production" {
		log.Warn("using the default jwt secret")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "change-me-in-production"
	}

	var generator app.QuizGenerator
	if g := ai.NewGenerator(ai.Options{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: config.TTLDuration(cfg.AI.Timeout, 60*time.Second),
	}, log); g != nil {
		generator = g
	} else {
		log.Info("ai quiz generation disabled: no api key")
	}

	submissions := app.NewSubmissionService(b.cache, b.store, b.sessions, log)
	play := app.NewPlayService(b.cache, submissions, app.SystemClock(), config.TTLDuration(cfg.Play.Retention, 30*time.Minute), log)
	defer play.Close()

	router := transport.NewRouter(transport.Dependencies{
		Auth: app.NewAuthService(b.store, b.sessions, auth.NewTokenIssuer(cfg.Auth.JWTSecret),
			config.TTLDuration(cfg.Auth.SessionTTL, 24*time.Hour), log),
		Quizzes:        app.NewQuizService(b.store, b.cache, generator, log),
		Submissions:    submissions,
		Leaderboard:    app.NewLeaderboardService(b.store, cfg.LeaderboardSize()),
		Play:           play,
		Log:            log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return play.RunSweeper(gctx, config.TTLDuration(cfg.Play.SweepInterval, time.Minute))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
