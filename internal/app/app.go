package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/config"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/httpapi"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/telegram"
)

// ErrNoBotToken is returned by New when BOT_TOKEN is unset.
var ErrNoBotToken = errors.New("BOT_TOKEN is required")

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if cfg.BotToken == "" {
		return nil, ErrNoBotToken
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting pillulu bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("default_tz", a.cfg.DefaultTZ),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.log)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, a.cfg.DefaultTZ)
	a.httpSrv = httpapi.NewServer(a.cfg.HTTPAddr, httpapi.NewRouter(a.log, a.repo, time.Now, a.cfg.TrustProxy))

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
