package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/config"
	"character-quiz-bot/internal/infra/memory"
	redisinfra "character-quiz-bot/internal/infra/redis"
	transport "character-quiz-bot/internal/transport/http"
	"character-quiz-bot/internal/transport/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand that runs the bot and the HTTP server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Telegram bot and the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	contentLoader, closeLoader := openContentSource(ctx, cfg, redisClient, log.Default())
	defer closeLoader()
	content := app.LoadContent(ctx, contentLoader, log.Default())

	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, 24*time.Hour)
	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}

	engine := app.NewEngine(content, store, app.WithFallbackOutcome(cfg.Quiz.FallbackOutcome))
	service := app.NewQuizService(engine)
	reaper := app.NewReaper(store, sessionTTL, config.TTLDuration(cfg.Quiz.ReaperInterval, time.Minute))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting http server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return reaper.Run(gctx)
	})
	g.Go(func() error {
		return runBot(gctx, cfg, service)
	})
	return g.Wait()
}

func runBot(ctx context.Context, cfg config.Config, service *app.QuizService) error {
	if cfg.Telegram.Token == "" {
		log.Printf("telegram token not set, bot disabled")
		return nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	api.Debug = cfg.Telegram.Debug
	log.Printf("authorised on account %s", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	bot := telegram.NewBot(api, service, telegram.Options{
		AssetsDir:    cfg.Telegram.AssetsDir,
		WelcomeImage: cfg.Telegram.WelcomeImage,
		DonateImage:  cfg.Telegram.DonateImage,
		AboutText:    cfg.Telegram.AboutText,
	})
	return bot.Run(ctx, updates)
}
