package testutils

import (
	"fmt"
	"strings"
	"testing"
)

type mockTestingT struct {
	errorCalled  bool
	errorMessage string
}

func (m *mockTestingT) Errorf(format string, args ...any) {
	m.errorCalled = true
	m.errorMessage = fmt.Sprintf(format, args...)
}

func TestJSONAsserter_DefaultOptions(t *testing.T) {
	opts := NewJSONAsserter(t).Options()

	if !opts.IgnoreExtraKeys {
		t.Error("IgnoreExtraKeys should default to true")
	}
	if !opts.AllowPresencePlaceholder {
		t.Error("AllowPresencePlaceholder should default to true")
	}
	if opts.IgnoreArrayOrder {
		t.Error("IgnoreArrayOrder should default to false")
	}
	if len(opts.IgnoredFields) != 0 {
		t.Error("IgnoredFields should default to empty")
	}
}

func TestJSONAsserter_Compare(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		actual   string
		expected string
		wantDiff bool
	}{
		{
			name:     "identical records",
			actual:   `{"sequence_number":1,"context_follows":false}`,
			expected: `{"sequence_number":1,"context_follows":false}`,
		},
		{
			name:     "extra keys ignored by default",
			actual:   `{"sequence_number":1,"time_offset":-5}`,
			expected: `{"sequence_number":1}`,
		},
		{
			name:     "extra keys reported when strict",
			opts:     []Option{WithIgnoreExtraKeys(false)},
			actual:   `{"sequence_number":1,"time_offset":-5}`,
			expected: `{"sequence_number":1}`,
			wantDiff: true,
		},
		{
			name:     "presence placeholder matches any value",
			actual:   `{"base_time":{"year":2024,"month":3}}`,
			expected: `{"base_time":"<<PRESENCE>>"}`,
		},
		{
			name:     "presence placeholder requires the key",
			actual:   `{"sequence_number":1}`,
			expected: `{"base_time":"<<PRESENCE>>"}`,
			wantDiff: true,
		},
		{
			name:     "placeholder compared literally when disabled",
			opts:     []Option{WithAllowPresencePlaceholder(false)},
			actual:   `{"base_time":{"year":2024}}`,
			expected: `{"base_time":"<<PRESENCE>>"}`,
			wantDiff: true,
		},
		{
			name:     "nested value mismatch",
			actual:   `{"concentration":{"value":0.0065,"unit":"kg/L"}}`,
			expected: `{"concentration":{"value":0.0066,"unit":"kg/L"}}`,
			wantDiff: true,
		},
		{
			name:     "root arrays",
			actual:   `[{"sequence_number":1},{"sequence_number":2}]`,
			expected: `[{"sequence_number":1},{"sequence_number":2}]`,
		},
		{
			name:     "array order matters by default",
			actual:   `[{"sequence_number":2},{"sequence_number":1}]`,
			expected: `[{"sequence_number":1},{"sequence_number":2}]`,
			wantDiff: true,
		},
		{
			name:     "array order ignored",
			opts:     []Option{WithIgnoreArrayOrder(true)},
			actual:   `[{"sequence_number":2},{"sequence_number":1}]`,
			expected: `[{"sequence_number":1},{"sequence_number":2}]`,
		},
		{
			name:     "ignored fields at any depth",
			opts:     []Option{WithIgnoredFields("raw"), WithIgnoreExtraKeys(false)},
			actual:   `{"pressure":{"raw":101325,"value":1013.25}}`,
			expected: `{"pressure":{"raw":1,"value":1013.25}}`,
		},
		{
			name:     "ignored fields do not affect array order",
			opts:     []Option{WithIgnoredFields("at"), WithIgnoreArrayOrder(true)},
			actual:   `[{"uuid":"2a18","at":2},{"uuid":"2a18","at":1}]`,
			expected: `[{"uuid":"2a18","at":9},{"uuid":"2a18","at":8}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ja := NewJSONAsserter(t).WithOptions(tt.opts...)
			diff := ja.diff(tt.actual, tt.expected)
			if tt.wantDiff && diff == "" {
				t.Error("expected a diff")
			}
			if !tt.wantDiff && diff != "" {
				t.Errorf("expected no diff, got:\n%s", diff)
			}
		})
	}
}

func TestJSONAsserter_InvalidJSON(t *testing.T) {
	ja := NewJSONAsserter(t)

	if diff := ja.diff(`{"a":1}`, `{invalid`); !strings.Contains(diff, "invalid expected JSON") {
		t.Errorf("expected invalid expected JSON message, got: %s", diff)
	}
	if diff := ja.diff(`{invalid`, `{"a":1}`); !strings.Contains(diff, "invalid actual JSON") {
		t.Errorf("expected invalid actual JSON message, got: %s", diff)
	}
}

func TestJSONAsserter_AssertValue(t *testing.T) {
	type reading struct {
		Pressure float64 `json:"pressure"`
		Unit     string  `json:"unit"`
	}

	mockT := &mockTestingT{}
	ok := NewJSONAsserter(mockT).AssertValue(reading{Pressure: 1013.25, Unit: "hPa"}, `{"unit":"hPa"}`)
	if !ok || mockT.errorCalled {
		t.Errorf("expected match, got: %s", mockT.errorMessage)
	}

	mockT = &mockTestingT{}
	ok = NewJSONAsserter(mockT).AssertValue(reading{Pressure: 1013.25, Unit: "hPa"}, `{"unit":"kPa"}`)
	if ok || !mockT.errorCalled {
		t.Error("expected Errorf for mismatching value")
	}
	if !strings.Contains(mockT.errorMessage, "JSON assertion failed") {
		t.Errorf("unexpected message: %s", mockT.errorMessage)
	}
}

func TestMustJSON_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported value")
		}
	}()
	MustJSON(make(chan int))
}
