package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/outbox/payloads"
)

func TestOrderDecoders(t *testing.T) {
	reg := NewOrderDecoders()

	out, err := reg.Decode(enums.EventOrderStatusChanged, 1, json.RawMessage(`{"from":"pending","to":"shipped"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evt, ok := out.(*payloads.OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected output %T", out)
	}
	if evt.From != enums.OrderStatusPending || evt.To != enums.OrderStatusShipped {
		t.Fatalf("unexpected transition %s->%s", evt.From, evt.To)
	}

	if _, err := reg.Decode(enums.EventOrderCreated, 2, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected missing decoder for v2")
	}
	if _, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`not-json`)); err == nil {
		t.Fatal("expected decode error")
	}
}
