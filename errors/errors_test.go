package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_NotRetryable(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.Message != "bad" {
		t.Errorf("expected message 'bad', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("INVALID_INPUT should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_ConnectionFailed(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := ConnectionFailed("api.example.com", cause)
	if err.Code != ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %s", err.Code)
	}
	if err.Details["target"] != "api.example.com" {
		t.Errorf("expected target detail, got %v", err.Details["target"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if !err.Retryable {
		t.Error("ConnectionFailed should be retryable")
	}
}

func TestAppError_UntrustedCertificate(t *testing.T) {
	err := UntrustedCertificate("localhost", nil)
	if err.Code != ErrCodeUntrustedCertificate {
		t.Errorf("expected UNTRUSTED_CERTIFICATE, got %s", err.Code)
	}
	if err.Retryable {
		t.Error("UntrustedCertificate should not be retryable")
	}
	if !strings.Contains(err.Error(), "localhost") {
		t.Errorf("expected host in message, got %q", err.Error())
	}
}

func TestAppError_InvalidInput_EmptyField(t *testing.T) {
	err := InvalidInput("", "nope")
	if _, ok := err.Details["field"]; ok {
		t.Error("expected no 'field' key when field is empty")
	}
	if err.Message != "Invalid input: nope" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := Validation("bad").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	if err.Error() != "INTERNAL_ERROR: boom" {
		t.Errorf("unexpected format %q", err.Error())
	}
	err.WithCause(fmt.Errorf("root"))
	if err.Error() != "INTERNAL_ERROR: boom (cause: root)" {
		t.Errorf("unexpected format with cause %q", err.Error())
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"Timeout", Timeout("fetch", nil), ErrCodeTimeout, true},
		{"MissingField", MissingField("url"), ErrCodeMissingField, false},
		{"InvalidFormat", InvalidFormat("body", "JSON"), ErrCodeInvalidFormat, false},
		{"Unsupported", Unsupported("cookies"), ErrCodeUnsupported, false},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v", tc.retryable)
			}
		})
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := InvalidFormat("body", "JSON")
	data, mErr := json.Marshal(err.ToResponse())
	if mErr != nil {
		t.Fatalf("marshal failed: %v", mErr)
	}
	if !strings.Contains(string(data), `"code":"INVALID_FORMAT"`) {
		t.Errorf("expected code in JSON, got %s", data)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := Timeout("fetch", nil)
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap should return the AppError found in the chain")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Unsupported("cookies"))
	if !HasCode(err, ErrCodeUnsupported) {
		t.Error("expected HasCode to find UNSUPPORTED")
	}
	if HasCode(err, ErrCodeTimeout) {
		t.Error("expected HasCode to reject TIMEOUT")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}
