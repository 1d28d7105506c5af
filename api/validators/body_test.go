package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

type createPayload struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2"`
	Role     string `json:"role" validate:"omitempty,oneof=homeowner guest"`
}

func decode(t *testing.T, body string, dest any) error {
	t.Helper()
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	return DecodeJSONBody(r, dest)
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var payload createPayload
	err := decode(t, `{"email":"owner@example.com","full_name":"Maria Lopez","role":"homeowner"}`, &payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Email != "owner@example.com" {
		t.Fatalf("unexpected decode result %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var payload createPayload
	err := decode(t, `{"email":"owner@example.com","full_name":"Maria Lopez","extra":true}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var payload createPayload
	err := decode(t, `{"email":"not-an-email","full_name":"M"}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected detail map, got %T", typed.Details())
	}
	if _, found := details["email"]; !found {
		t.Fatalf("detail keys should use json names, got %v", details)
	}
	if _, found := details["full_name"]; !found {
		t.Fatalf("detail keys should use json names, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsBadEnum(t *testing.T) {
	var payload createPayload
	err := decode(t, `{"email":"owner@example.com","full_name":"Maria Lopez","role":"landlord"}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"", true, true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/?flag="+tc.raw, nil)
		got, err := ParseQueryBool(r, "flag", tc.def)
		if err != nil {
			t.Fatalf("ParseQueryBool(%q) unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseQueryBool(%q, default %t) = %t, want %t", tc.raw, tc.def, got, tc.want)
		}
	}
}

func TestParseQueryBoolRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/?flag=garbage", nil)
	_, err := ParseQueryBool(r, "flag", false)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
