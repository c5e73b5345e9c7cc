package email_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/ErlanBelekov/wisdom-hub/internal/email"
)

func TestNewSender_LocalLogsInsteadOfSending(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sender := email.NewSender("local", "", "", logger)
	if _, ok := sender.(*email.LogSender); !ok {
		t.Fatalf("sender = %T, want *email.LogSender", sender)
	}

	msg := email.Verification(email.NewLinks("http://localhost:8080"), "Ann", "tok")
	if err := sender.Send(context.Background(), "a@x.com", msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"kind=verification", "to=a@x.com", "token=tok"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestNewSender_ProductionUsesResend(t *testing.T) {
	sender := email.NewSender("production", "re_test", "hub@example.com", slog.Default())
	if _, ok := sender.(*email.ResendSender); !ok {
		t.Errorf("sender = %T, want *email.ResendSender", sender)
	}
}
