package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/chatstream/errors"
)

type login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
}

type nested struct {
	Playground struct {
		BaseURL string `mapstructure:"base_url" validate:"required,url"`
		Timeout int    `mapstructure:"timeout" validate:"gte=0"`
	} `mapstructure:"playground"`
	ChunkSize int    `validate:"gt=0"`
	Policy    string `validate:"oneof=stall resync"`
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(login{Username: "ana", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	err := Validate(login{Password: "abc"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "username: is required") {
		t.Errorf("expected username message, got %q", appErr.Message)
	}
	if !strings.Contains(appErr.Message, "password: must be at least 4 characters") {
		t.Errorf("expected password message, got %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected two field errors, got %v", appErr.Details["fields"])
	}
}

func TestValidate_NestedNames(t *testing.T) {
	var cfg nested
	cfg.Playground.BaseURL = "not a url"
	cfg.Policy = "skip"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"playground.base_url: must be a valid URL",
		"chunk_size: must be greater than 0",
		"policy: must be one of: stall resync",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ChunkSize": "chunk_size",
		"id":        "id",
		"StrictEOF": "strict_e_o_f",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}
