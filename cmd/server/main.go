// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/descensiontohell/mailing-service/internal/config"
	"github.com/descensiontohell/mailing-service/internal/controller"
	"github.com/descensiontohell/mailing-service/internal/db"
	"github.com/descensiontohell/mailing-service/internal/events"
	"github.com/descensiontohell/mailing-service/internal/repository"
	"github.com/descensiontohell/mailing-service/internal/scheduler"
	"github.com/descensiontohell/mailing-service/internal/sender"
	"github.com/descensiontohell/mailing-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	database, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()
	log.Info().Str("db", cfg.DB.Name).Msg("connected to database")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
		}
		defer amqpPub.Close()
		publisher = amqpPub
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("delivery events enabled")
	}

	mailingRepo := &repository.MailingRepository{DB: database}
	subscriberRepo := &repository.SubscriberRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}

	subscriberService := &service.SubscriberService{SubscriberRepo: subscriberRepo}

	gateway := sender.NewHTTPSender(cfg.Send.URLBase, cfg.Send.AuthToken, cfg.Send.Timeout)

	sched := scheduler.New(
		mailingRepo,
		subscriberService,
		messageRepo,
		gateway,
		publisher,
		scheduler.Config{PollInterval: cfg.Scheduler.PollInterval, Throttle: cfg.Scheduler.Throttle},
		log,
	)

	mailingService := &service.MailingService{
		MailingRepo: mailingRepo,
		MessageRepo: messageRepo,
		Scheduler:   sched,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer sched.Shutdown()

	// Re-register units for mailings whose window is still open so a
	// restart does not lose scheduled work.
	restored, err := mailingService.RestoreScheduled(time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore scheduled mailings")
	}
	log.Info().Int("mailings", restored).Msg("restored scheduled mailings")

	mailingController := &controller.MailingController{MailingService: mailingService}
	subscriberController := &controller.SubscriberController{SubscriberService: subscriberService}

	r := chi.NewRouter()

	// Mailing routes
	r.Post("/mailings", mailingController.CreateMailing)
	r.Get("/mailings", mailingController.ListMailings)
	r.Get("/mailings/{id}", mailingController.GetMailingStats)
	r.Put("/mailings/{id}", mailingController.UpdateMailing)
	r.Delete("/mailings/{id}", mailingController.DeleteMailing)

	// Subscriber routes
	r.Post("/subscribers", subscriberController.CreateSubscriber)
	r.Get("/subscribers", subscriberController.ListSubscribers)
	r.Put("/subscribers/{id}", subscriberController.UpdateSubscriber)
	r.Delete("/subscribers/{id}", subscriberController.DeleteSubscriber)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
