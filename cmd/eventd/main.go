// Command eventd serves an eventproc processor over HTTP and, when brokers
// are configured, over Kafka. It registers a single ping handler and is
// meant as a starting point for real services.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjaus/eventproc"
	"github.com/bjaus/eventproc/internal/config"
	"github.com/bjaus/eventproc/metrics"
	"github.com/bjaus/eventproc/transport/httptransport"
	"github.com/bjaus/eventproc/transport/kafkatransport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("eventd stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	table := eventproc.NewTable()
	table.RegisterFunc("ping", 1, func(ctx context.Context, req eventproc.Event) (any, error) {
		return map[string]string{"pong": cfg.App.Name}, nil
	})

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := append([]eventproc.Option{eventproc.WithLogger(logger)}, m.Options()...)
	processor := eventproc.New(table, opts...)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", httptransport.New(processor,
		httptransport.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		httptransport.WithLogger(logger),
	))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)

	go func() {
		logger.Info("http listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	if cfg.Kafka.Enabled() {
		kcfg := kafkatransport.Config{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.Topic,
			ReplyTopic: cfg.Kafka.ReplyTopic,
			GroupID:    cfg.Kafka.GroupID,
		}
		reader := kafkatransport.NewReader(kcfg)
		defer reader.Close()
		writer := kafkatransport.NewWriter(kcfg)
		defer writer.Close()

		go func() {
			logger.Info("kafka consumer started", "topic", kcfg.Topic, "reply_topic", kcfg.ReplyTopic, "group_id", kcfg.GroupID)
			if err := kafkatransport.New(reader, writer, processor, kafkatransport.WithLogger(logger)).Run(ctx); err != nil {
				errs <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Error("http shutdown", "error", serr)
	}

	return err
}
