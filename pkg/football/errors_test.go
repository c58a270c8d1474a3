package football

import (
	"errors"
	"fmt"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		class    ErrorClass
		expected bool
	}{
		{name: "rate limit retries once", class: ErrorClassRateLimit, expected: true},
		{name: "client error", class: ErrorClassClient, expected: false},
		{name: "server error", class: ErrorClassServer, expected: false},
		{name: "network error", class: ErrorClassNetwork, expected: false},
		{name: "decode error", class: ErrorClassDecode, expected: false},
		{name: "empty class", class: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	inner := errors.New("connection reset")
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &APIError{
				Window:  Window{Limit: 5, Offset: 10},
				Class:   ErrorClassNetwork,
				Message: "request failed",
				Err:     inner,
			},
			expected: "football-data network error (status 0, limit=5 offset=10): request failed: connection reset",
		},
		{
			name: "status only",
			err: &APIError{
				Window:     Window{Limit: 1, Offset: 0},
				StatusCode: 403,
				Class:      ErrorClassClient,
				Message:    "Forbidden",
			},
			expected: "football-data client error (status 403, limit=1 offset=0): Forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("eof")
	err := fmt.Errorf("fetch: %w", &APIError{Class: ErrorClassDecode, Err: inner})

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Class != ErrorClassDecode {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassDecode)
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&APIError{Class: ErrorClassRateLimit, StatusCode: 429}) {
		t.Error("429 APIError should be rate limited")
	}
	if IsRateLimited(&APIError{Class: ErrorClassServer, StatusCode: 503}) {
		t.Error("503 APIError should not be rate limited")
	}
	if IsRateLimited(errors.New("plain")) {
		t.Error("plain error should not be rate limited")
	}
}

func TestWindow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{name: "first window", window: Window{Limit: 10, Offset: 0}},
		{name: "later window", window: Window{Limit: 1, Offset: 500}},
		{name: "zero limit", window: Window{Limit: 0, Offset: 0}, wantErr: true},
		{name: "negative limit", window: Window{Limit: -3, Offset: 0}, wantErr: true},
		{name: "negative offset", window: Window{Limit: 5, Offset: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Errorf("Validate() error = %v, want ErrInvalidWindow", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestWindow_Next(t *testing.T) {
	w := Window{Limit: 5, Offset: 10}
	next := w.Next(5, 2)
	if next.Offset != 15 || next.Limit != 2 {
		t.Errorf("Next() = %+v, want {Limit:2 Offset:15}", next)
	}
}
