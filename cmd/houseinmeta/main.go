// Package main запускает HTTP-сервер сервиса House In Meta.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/houseinmeta/backend/internal/config"
	"github.com/houseinmeta/backend/internal/handler"
	"github.com/houseinmeta/backend/internal/mail"
	"github.com/houseinmeta/backend/internal/payment"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if !cfg.PaymentConfigured() {
		sugar.Warnw("payment secret key is not set, card payments are disabled")
	}
	if !cfg.MailConfigured() {
		sugar.Warnw("mail credentials are not set, emails will be skipped")
	}

	gateway := payment.NewClient(cfg.StripeSecretKey)

	sender := mail.NewSender(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPUser,
		ReplyTo:  cfg.SupportEmail,
	}, logger)
	defer sender.Close()

	notifier := mail.NewNotifier(sender, cfg.NotifyEmail, logger)

	h := handler.NewHandler(gateway, notifier, logger)
	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая проверка SMTP: результат только логируется и ни на что не влияет.
	g.Go(func() error {
		if !sender.Configured() {
			return nil
		}
		if err := sender.Verify(ctx); err != nil {
			sugar.Warnw("smtp verification failed", "error", err.Error())
			return nil
		}
		sugar.Infow("smtp server is ready to send messages")
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting houseinmeta server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
