package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPProviderSendTemplate(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p := NewSMTP(Config{Host: "mail.local", Port: 2525, From: "no-reply@greenpack.local"})
	p.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"sales@greenpack.local"}, TemplateInquiryReceived, map[string]interface{}{
		"name":       "Jane",
		"email":      "jane@example.com",
		"message":    "Need 5000 carry bags",
		"inquiry_id": "42",
	})
	if err != nil {
		t.Fatalf("send template: %v", err)
	}

	if gotAddr != "mail.local:2525" {
		t.Fatalf("unexpected addr: %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "sales@greenpack.local" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: New inquiry received") {
		t.Fatalf("missing default subject: %s", gotMsg)
	}
	if !strings.Contains(gotMsg, "Need 5000 carry bags") {
		t.Fatalf("missing message body: %s", gotMsg)
	}
	if strings.Contains(gotMsg, "Phone") {
		t.Fatalf("empty optional fields should be omitted")
	}
}

func TestSMTPProviderRequiresRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "mail.local", Port: 25})
	if err := p.Send(context.Background(), nil, "hi", "<p>hi</p>"); err != ErrNoRecipients {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("missing", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestRenderWelcomeCommunity(t *testing.T) {
	body, err := Render(TemplateWelcome, map[string]interface{}{"name": "Sam", "source": "community"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "community") || !strings.Contains(body, "Sam") {
		t.Fatalf("unexpected body: %s", body)
	}
}
