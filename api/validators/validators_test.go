package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/shopcart-backend/pkg/errors"
)

type signupBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@example.com","password":"long-enough"}`))
	var body signupBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Email != "a@example.com" {
		t.Fatalf("unexpected email %q", body.Email)
	}
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	var body signupBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["email"])
	}
	if details["password"] != "must be at least 8" {
		t.Fatalf("unexpected password detail %q", details["password"])
	}
}

type quantityBody struct {
	Quantity *int `json:"quantity" validate:"required,min=1" message:"Invalid quantity"`
}

func TestDecodeJSONBodyUsesFieldMessage(t *testing.T) {
	for _, payload := range []string{`{}`, `{"quantity":0}`} {
		req := httptest.NewRequest("PATCH", "/", strings.NewReader(payload))
		var body quantityBody
		typed := pkgerrors.As(DecodeJSONBody(req, &body))
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error", payload)
		}
		if typed.Message() != "Invalid quantity" {
			t.Fatalf("%s: unexpected message %q", payload, typed.Message())
		}
	}
}

func TestDecodeJSONBodyDefaultMessage(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"","password":""}`))
	var body signupBody
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	if typed == nil || typed.Message() != "validation failed" {
		t.Fatalf("expected generic message, got %v", typed)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
	var body signupBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQueryStringTrimsAndTruncates(t *testing.T) {
	req := httptest.NewRequest("GET", "/items?q=%20%20laptop%20%20&category=abcdef", nil)
	if got := QueryString(req, "q", 0); got != "laptop" {
		t.Fatalf("unexpected q %q", got)
	}
	if got := QueryString(req, "category", 3); got != "abc" {
		t.Fatalf("unexpected category %q", got)
	}
	if got := QueryString(req, "missing", 10); got != "" {
		t.Fatalf("unexpected missing value %q", got)
	}
}
