package testutils

import (
	"strings"
	"testing"
)

func TestTextAsserter_DefaultOptions(t *testing.T) {
	opts := NewTextAsserter(t).Options()

	if !opts.TrimTrailingWhitespace {
		t.Error("TrimTrailingWhitespace should default to true")
	}
	if !opts.TrimSpace {
		t.Error("TrimSpace should default to true")
	}
	if !opts.StripANSI {
		t.Error("StripANSI should default to true")
	}
	if opts.IgnoreEmptyLines || opts.EnableColors {
		t.Error("IgnoreEmptyLines and EnableColors should default to false")
	}
}

func TestTextAsserter_Normalization(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		wantDiff bool
	}{
		{
			name:     "identical",
			actual:   "seq  value\n1    5.5",
			expected: "seq  value\n1    5.5",
		},
		{
			name:     "trailing whitespace ignored",
			actual:   "seq  value   \n1    5.5\t",
			expected: "seq  value\n1    5.5",
		},
		{
			name:     "trailing whitespace compared when disabled",
			opts:     []TextOption{WithTrimTrailingWhitespace(false)},
			actual:   "seq  value   ",
			expected: "seq  value",
			wantDiff: true,
		},
		{
			name:     "surrounding blank lines trimmed",
			actual:   "\n\nrecords: 3\n\n",
			expected: "records: 3",
		},
		{
			name:     "inner empty lines ignored",
			opts:     []TextOption{WithIgnoreEmptyLines(true)},
			actual:   "a\n\nb",
			expected: "a\nb",
		},
		{
			name:     "inner empty lines compared by default",
			actual:   "a\n\nb",
			expected: "a\nb",
			wantDiff: true,
		},
		{
			name:     "ANSI colour stripped",
			actual:   "\x1b[32mSuccess\x1b[0m",
			expected: "Success",
		},
		{
			name:     "ANSI colour compared when disabled",
			opts:     []TextOption{WithStripANSI(false)},
			actual:   "\x1b[32mSuccess\x1b[0m",
			expected: "Success",
			wantDiff: true,
		},
		{
			name:     "leading indentation significant",
			actual:   "  key: value",
			expected: "key: value",
			wantDiff: true,
		},
		{
			name:     "indentation kept after blank lines trimmed",
			actual:   "\n  \n  key: value\n\t\n",
			expected: "  key: value",
		},
		{
			name:     "indentation after blank lines significant",
			actual:   "\n  key: value\n",
			expected: "\nkey: value\n",
			wantDiff: true,
		},
		{
			name:     "trailing whitespace on last line compared when disabled",
			opts:     []TextOption{WithTrimTrailingWhitespace(false)},
			actual:   "seq  value\n1    5.5  \n",
			expected: "seq  value\n1    5.5\n",
			wantDiff: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := NewTextAsserter(t).WithOptions(tt.opts...)
			diff := ta.diff(tt.actual, tt.expected)
			if tt.wantDiff && diff == "" {
				t.Error("expected a diff")
			}
			if !tt.wantDiff && diff != "" {
				t.Errorf("expected no diff, got:\n%s", diff)
			}
		})
	}
}

func TestTextAsserter_DiffContent(t *testing.T) {
	ta := NewTextAsserter(t)
	diff := ta.diff("line1\nline2\nline4", "line1\nline2\nline3")

	if !strings.Contains(diff, "-line3") || !strings.Contains(diff, "+line4") {
		t.Errorf("expected unified diff lines, got:\n%s", diff)
	}

	colored := NewTextAsserter(t).WithOptions(WithEnableColors(true)).diff("a b", "a c")
	if !strings.Contains(colored, "\x1b[") || !strings.Contains(colored, "a·c") {
		t.Errorf("expected coloured diff with visible whitespace, got:\n%q", colored)
	}
}

func TestTextAsserter_Assert(t *testing.T) {
	mockT := &mockTestingT{}
	if NewTextAsserter(mockT).Assert("hello", "world") {
		t.Error("expected Assert to report a mismatch")
	}
	if !mockT.errorCalled || !strings.Contains(mockT.errorMessage, "Text assertion failed") {
		t.Errorf("unexpected message: %s", mockT.errorMessage)
	}

	mockT = &mockTestingT{}
	if !NewTextAsserter(mockT).Assert("hello\n", "hello") || mockT.errorCalled {
		t.Errorf("expected no error, got: %s", mockT.errorMessage)
	}
}

func TestMustHex(t *testing.T) {
	got := MustHex("01 03:0A-00")
	if string(got) != string([]byte{0x01, 0x03, 0x0A, 0x00}) {
		t.Errorf("unexpected bytes: % X", got)
	}
}
