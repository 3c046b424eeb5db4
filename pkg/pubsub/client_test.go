package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/hauler-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	if got := topicResourceName("proj", "orders"); got != "projects/proj/topics/orders" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := subscriptionResourceName("proj", " notif "); got != "projects/proj/subscriptions/notif" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	full := "projects/other/topics/orders"
	if got := topicResourceName("proj", full); got != full {
		t.Fatalf("full names should pass through, got %q", got)
	}
	if got := topicResourceName("", "orders"); got != "" {
		t.Fatalf("missing project should yield empty name, got %q", got)
	}
	if got := subscriptionResourceName("proj", ""); got != "" {
		t.Fatalf("empty name should yield empty, got %q", got)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("orders") != nil || c.OrdersSubscription() != nil {
		t.Fatal("nil client should hand out nil handles")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("ping on nil client should fail")
	}
}

func TestClientOptions(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected no options, got %d", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}); len(opts) != 1 {
		t.Fatalf("expected credentials option, got %d", len(opts))
	}
}
