package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/api"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/cache"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/client"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/config"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/contacts"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/retry"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/scheduler"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/service"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	graph := client.NewGraphClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.Token)
	store := retry.NewStore(cfg.Retry.File)
	sender := service.NewSender(graph, store)

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sender.WithAudit(cache.NewRedisCache(rdb, cfg.Redis.TTL))
		slog.Info("forward audit cache enabled", "addr", cfg.Redis.Address)
	}

	book := contacts.NewBook(cfg.Contacts.MatchLast8, cfg.Contacts.LogFile)
	loadContacts(book, cfg)

	state := session.NewState()
	watchdog := session.NewWatchdog(
		state, sender,
		cfg.WhatsApp.PhoneNumberID, cfg.Relay.ForwardNumber,
		cfg.Watchdog.SessionWindow, cfg.Watchdog.ReminderLead,
	)
	worker := retry.NewWorker(store, sender, cfg.Retry.Interval, cfg.Retry.MaxRetries)

	retryLoop, err := scheduler.New("retry", cfg.Retry.Interval, worker.Tick)
	if err != nil {
		log.Fatal(err)
	}
	watchLoop, err := scheduler.New("watchdog", cfg.Watchdog.CheckInterval, watchdog.Tick)
	if err != nil {
		log.Fatal(err)
	}

	retryLoop.Start()
	watchLoop.Start()

	h := api.NewHandler(
		cfg.WhatsApp.VerifyToken,
		cfg.Relay.ForwardNumber,
		cfg.Relay.NewNumber,
		cfg.WhatsApp.PhoneNumberID,
		sender, book, state, watchdog,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Router(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("relay listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	retryLoop.Stop()
	watchLoop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func loadContacts(book *contacts.Book, cfg *config.Config) {
	switch {
	case cfg.Contacts.URL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := book.LoadURL(ctx, cfg.Contacts.URL); err != nil {
			slog.Warn("contacts url load failed, starting with empty book", "error", err)
		}
	case cfg.Contacts.File != "":
		if err := book.LoadFile(cfg.Contacts.File); err != nil {
			slog.Warn("contacts file load failed, starting with empty book", "error", err)
		}
	}
}
