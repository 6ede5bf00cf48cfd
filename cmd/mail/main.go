package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/mailer"
	"github.com/wneessen/go-mail"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return
	}
	if cfg.RabbitMQ.DSN == "" || cfg.Email.SMTP.Host == "" {
		logger.Error("RABBITMQ_DSN and EMAIL_SMTP_HOST are required by the mail worker")
		return
	}

	from := cfg.Email.From
	if from == "" {
		from = cfg.Email.SMTP.Username
	}
	composer := mailer.NewComposer(from, cfg.Email.TemplateDir)

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("failed to create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// check the SMTP server is reachable before consuming
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("failed to connect to mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := mailer.DeclareQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("failed to declare queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // broker-assigned consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("delivery channel closed")
					sigChan <- syscall.SIGTERM
					return
				}
				logger.Info("received message", slog.String("id", msg.MessageId), slog.String("type", msg.Type))

				m, err := composer.Compose(msg.Body)
				if err != nil {
					// a malformed or unknown message fails the same way on every delivery
					level := slog.LevelError
					if errors.Is(err, mailer.ErrUnknownType) {
						level = slog.LevelWarn
					}
					logger.Log(ctx, level, "failed to compose mail", slog.String("id", msg.MessageId), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if err := client.DialAndSend(m); err != nil {
					logger.Error("failed to send mail", slog.String("id", msg.MessageId), slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // requeue
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for messages, press CTRL+C to exit", slog.String("queue", q.Name))
	<-sigChan

	logger.Info("stopping mail worker")
	cancel()
	wg.Wait()
	logger.Info("mail worker stopped")
}
