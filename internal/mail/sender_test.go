package mail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestSender_NotConfigured(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Port: 587}, zap.NewNop())

	if s.Configured() {
		t.Fatalf("Configured = true without credentials")
	}

	err := s.Send(context.Background(), Message{To: "max@example.com", Subject: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

// Сервер принимает соединение и молчит: отправка обязана завершиться
// тайм-аутом за ограниченное время, а не висеть.
func TestSender_TimeoutOnStalledServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				<-done
				c.Close()
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := NewSender(Config{
		Host:        "127.0.0.1",
		Port:        addr.Port,
		Username:    "user",
		Password:    "pass",
		From:        "noreply@houseinmeta.com",
		SendTimeout: 300 * time.Millisecond,
	}, zap.NewNop())
	defer s.Close()

	start := time.Now()
	err = s.Send(context.Background(), Message{To: "max@example.com", Subject: "hi", HTML: "<p>hi</p>"})

	var delivery *DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Reason != ReasonTimeout {
		t.Fatalf("Reason = %q, want %q", delivery.Reason, ReasonTimeout)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Send took %v, must return near the configured timeout", elapsed)
	}
}

// Сервер проходит приветствие, EHLO и AUTH, а затем молчит на MAIL FROM.
// Отправка обязана вернуть тайм-аут и в этом случае: тайм-аут пула
// ограничивает только выдачу соединения, не сам диалог.
func TestSender_TimeoutMidConversation(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			<-done
			conn.Close()
		}()

		fmt.Fprint(conn, "220 test.local ready\r\n")
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "EHLO"):
				fmt.Fprint(conn, "250-test.local\r\n250 AUTH PLAIN LOGIN\r\n")
			case strings.HasPrefix(line, "AUTH"):
				fmt.Fprint(conn, "235 2.7.0 accepted\r\n")
			case strings.HasPrefix(line, "MAIL"):
				<-done
				return
			default:
				fmt.Fprint(conn, "250 ok\r\n")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := NewSender(Config{
		Host:        "127.0.0.1",
		Port:        addr.Port,
		Username:    "user",
		Password:    "pass",
		From:        "noreply@houseinmeta.com",
		SendTimeout: 300 * time.Millisecond,
	}, zap.NewNop())
	defer s.Close()

	start := time.Now()
	err = s.Send(context.Background(), Message{To: "max@example.com", Subject: "hi", HTML: "<p>hi</p>"})

	var delivery *DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Reason != ReasonTimeout {
		t.Fatalf("Reason = %q, want %q", delivery.Reason, ReasonTimeout)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Send took %v, must return near the configured timeout", elapsed)
	}

	// Зависшее соединение не должно достаться следующей отправке.
	s.mu.Lock()
	if s.pool != nil {
		t.Fatalf("pool with a wedged connection must be dropped")
	}
	s.mu.Unlock()
}

// В любом скользящем окне RateWindow проходит не больше RateLimit писем:
// пачка RateLimit сразу, дальше по одному токену за целое окно.
func TestSender_RateLimitWindow(t *testing.T) {
	s := NewSender(Config{
		Host:     "127.0.0.1",
		Port:     1,
		Username: "user",
		Password: "pass",
	}, zap.NewNop())

	if got := s.limiter.Burst(); got != 5 {
		t.Fatalf("Burst = %d, want 5", got)
	}
	if got := s.limiter.Limit(); got != rate.Every(20*time.Second) {
		t.Fatalf("Limit = %v, want one token per 20s window", got)
	}

	for i := 0; i < 5; i++ {
		if !s.limiter.Allow() {
			t.Fatalf("message %d must pass within the burst", i+1)
		}
	}
	if s.limiter.Allow() {
		t.Fatalf("sixth message must wait for the window to free up")
	}
}

func TestSender_CanceledWhileRateLimited(t *testing.T) {
	s := NewSender(Config{
		Host:       "127.0.0.1",
		Port:       1,
		Username:   "user",
		Password:   "pass",
		RateLimit:  1,
		RateWindow: time.Hour,
	}, zap.NewNop())

	// Исчерпываем единственный токен.
	s.limiter.AllowN(time.Now(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Send(ctx, Message{To: "max@example.com"})

	var delivery *DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Reason != ReasonCanceled {
		t.Fatalf("Reason = %q, want %q", delivery.Reason, ReasonCanceled)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Host: "smtp.gmail.com", Port: 587}
	cfg.applyDefaults()

	if cfg.MaxConns != 5 || cfg.MaxMessages != 100 {
		t.Fatalf("pool defaults = %d/%d", cfg.MaxConns, cfg.MaxMessages)
	}
	if cfg.RateLimit != 5 || cfg.RateWindow != 20*time.Second {
		t.Fatalf("rate defaults = %d/%v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.SendTimeout != 8*time.Second {
		t.Fatalf("SendTimeout = %v", cfg.SendTimeout)
	}
}
