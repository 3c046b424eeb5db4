package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
)

type priceBody struct {
	Name  string          `json:"name" validate:"required,min=3"`
	Price decimal.Decimal `json:"price" validate:"gt=0"`
	Role  string          `json:"role" validate:"omitempty,oneof=supplier client"`
}

func TestDecodeJSONBodyValidatesDecimalAndNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ab","price":"0","role":"admin"}`))
	var body priceBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", pkgerrors.As(err).Details())
	}
	if details["name"] != "must be at least 3" || details["price"] != "must be greater than 0" || details["role"] == "" {
		t.Fatalf("unexpected details %v", details)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Gravel","price":"12.50"}`))
	body = priceBody{}
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
	if !body.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected price %s", body.Price)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Gravel","price":"1","extra":true}`))
	var body priceBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePaginationAndParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc&unread=true", nil)
	params, err := ParsePagination(req)
	if err != nil || params.Limit != 5 || params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v err=%v", params, err)
	}
	if unread, err := ParseQueryBool(req, "unread"); err != nil || !unread {
		t.Fatalf("expected unread=true, got %v err=%v", unread, err)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	if _, err := ParsePagination(bad); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}

	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	withParam := req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	if got, err := ParseUUIDParam(withParam, "orderId"); err != nil || got != id {
		t.Fatalf("expected %s, got %s err=%v", id, got, err)
	}
	if _, err := ParseUUIDParam(req, "orderId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing param should fail validation, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Gravel  ", 3); got != "Gra" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
