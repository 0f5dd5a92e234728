package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"sync"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotConfigured возвращается, когда учётные данные SMTP не заданы.
// Отсутствие почты не считается сбоем: письмо просто пропускается.
var ErrNotConfigured = errors.New("mail transport not configured")

// Причины сбоя доставки.
const (
	ReasonTimeout  = "timeout"
	ReasonSend     = "send"
	ReasonCanceled = "canceled"
)

// DeliveryError — сбой доставки письма. Никогда не приводит к отказу
// родительского запроса: вызывающий логирует его и продолжает работу.
type DeliveryError struct {
	Reason string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery failed (%s): %v", e.Reason, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Config содержит параметры SMTP-транспорта и ограничения пула.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	ReplyTo     string
	MaxConns    int           // соединений в пуле
	MaxMessages int           // писем на одно соединение
	RateLimit   int           // писем за окно RateWindow
	RateWindow  time.Duration
	SendTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 5
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = 100
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.RateWindow == 0 {
		c.RateWindow = 20 * time.Second
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 8 * time.Second
	}
}

// Attachment — вложение письма.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message — письмо к отправке.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Headers     map[string]string
	Attachments []Attachment
}

// Sender отправляет письма через пул SMTP-соединений с ограничением частоты.
// Превышение лимита ставит отправку в очередь, а не отбрасывает её.
type Sender struct {
	cfg        Config
	auth       smtp.Auth
	limiter    *rate.Limiter
	logger     *zap.Logger
	configured bool

	mu   sync.Mutex
	pool *email.Pool
	sent int
}

// NewSender создаёт отправитель писем. При пустых учётных данных возвращается
// ненастроенный отправитель: Send вернёт ErrNotConfigured.
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	cfg.applyDefaults()

	// Пополнение одним токеном за целое окно: ни одно скользящее окно
	// RateWindow не увидит больше RateLimit писем.
	s := &Sender{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.RateWindow), cfg.RateLimit),
	}

	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		s.configured = true
	}

	return s
}

// Configured сообщает, готов ли отправитель слать письма.
func (s *Sender) Configured() bool {
	return s.configured
}

func (s *Sender) addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// acquirePool выдаёт пул, пересоздавая его после исчерпания лимита писем,
// чтобы ни одно соединение не обслужило больше MaxMessages отправок.
func (s *Sender) acquirePool() (*email.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil && s.sent >= s.cfg.MaxMessages {
		s.pool.Close()
		s.pool = nil
		s.sent = 0
	}

	if s.pool == nil {
		p, err := email.NewPool(s.addr(), s.cfg.MaxConns, s.auth)
		if err != nil {
			return nil, fmt.Errorf("create smtp pool: %w", err)
		}
		s.pool = p
	}

	s.sent++
	return s.pool, nil
}

// dropPool закрывает пул с зависшим соединением, чтобы оно не досталось
// следующей отправке. Закрытие соединений также разблокирует отправку,
// застрявшую в SMTP-диалоге.
func (s *Sender) dropPool(p *email.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool == p {
		s.pool = nil
		s.sent = 0
	}
	p.Close()
}

// Send отправляет письмо, укладываясь в SendTimeout даже при зависшем
// транспорте. Тайм-аут возвращается как отдельная причина сбоя.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if !s.configured {
		return ErrNotConfigured
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Reason: ReasonCanceled, Err: err}
	}

	p, err := s.acquirePool()
	if err != nil {
		return &DeliveryError{Reason: ReasonSend, Err: err}
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	if s.cfg.ReplyTo != "" {
		e.ReplyTo = []string{s.cfg.ReplyTo}
	}
	for k, v := range msg.Headers {
		e.Headers.Set(k, v)
	}
	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Content), a.Filename, a.ContentType); err != nil {
			return &DeliveryError{Reason: ReasonSend, Err: err}
		}
	}

	// Тайм-аут пула ограничивает только выдачу соединения, сам SMTP-диалог
	// дедлайна не имеет. Отправка гоняется наперегонки с таймером, чтобы
	// зависший после рукопожатия сервер не держал вызов бесконечно.
	errc := make(chan error, 1)
	go func() {
		errc <- p.Send(e, s.cfg.SendTimeout)
	}()

	timer := time.NewTimer(s.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case err := <-errc:
		if err != nil {
			if errors.Is(err, email.ErrTimeout) {
				return &DeliveryError{Reason: ReasonTimeout, Err: err}
			}
			return &DeliveryError{Reason: ReasonSend, Err: err}
		}
	case <-timer.C:
		s.dropPool(p)
		return &DeliveryError{Reason: ReasonTimeout, Err: email.ErrTimeout}
	case <-ctx.Done():
		s.dropPool(p)
		return &DeliveryError{Reason: ReasonCanceled, Err: ctx.Err()}
	}

	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// Verify проверяет доступность SMTP-сервера с несколькими попытками.
// Вызывается в фоне при старте и ни на что, кроме лога, не влияет.
func (s *Sender) Verify(ctx context.Context) error {
	if !s.configured {
		return ErrNotConfigured
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		d := net.Dialer{Timeout: 5 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", s.addr())
		if err != nil {
			return retry.RetryableError(fmt.Errorf("dial smtp: %w", err))
		}

		c, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return retry.RetryableError(fmt.Errorf("smtp handshake: %w", err))
		}
		defer c.Close()

		if err := c.Hello("houseinmeta.com"); err != nil {
			return retry.RetryableError(fmt.Errorf("smtp hello: %w", err))
		}

		return c.Quit()
	})
}

// Close закрывает пул соединений.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
