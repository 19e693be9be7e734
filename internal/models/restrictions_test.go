package models

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected TimeOfDay
		wantErr  bool
	}{
		{name: "morning", value: "09:00:00", expected: TimeOfDay{Hour: 9}},
		{name: "with minutes and seconds", value: "17:30:45", expected: TimeOfDay{Hour: 17, Minute: 30, Second: 45}},
		{name: "midnight", value: "00:00:00", expected: TimeOfDay{}},
		{name: "missing seconds", value: "09:00", wantErr: true},
		{name: "out of range", value: "25:00:00", wantErr: true},
		{name: "garbage", value: "not a time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimeOfDay(%q) expected error, got %v", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.expected {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected Date
		wantErr  bool
	}{
		{name: "plain date", value: "2024-12-31", expected: Date{Year: 2024, Month: time.December, Day: 31}},
		{name: "leap day", value: "2024-02-29", expected: Date{Year: 2024, Month: time.February, Day: 29}},
		{name: "wrong order", value: "31-12-2024", wantErr: true},
		{name: "garbage", value: "someday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.expected {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestAttributes_RoundTrip(t *testing.T) {
	tz := "America/New_York"
	original := &User{
		Username:          "alice",
		Disabled:          true,
		Expired:           true,
		AccessWindowStart: &TimeOfDay{Hour: 9},
		AccessWindowEnd:   &TimeOfDay{Hour: 17, Minute: 30},
		ValidFrom:         &Date{Year: 2024, Month: time.June, Day: 1},
		ValidUntil:        &Date{Year: 2024, Month: time.December, Day: 31},
		TimeZone:          &tz,
	}

	restored := &User{Username: "alice"}
	restored.ApplyAttributes(original.Attributes(), discardLogger())

	if restored.Disabled != original.Disabled || restored.Expired != original.Expired {
		t.Error("boolean restrictions did not round-trip")
	}
	if *restored.AccessWindowStart != *original.AccessWindowStart ||
		*restored.AccessWindowEnd != *original.AccessWindowEnd {
		t.Error("access window did not round-trip")
	}
	if *restored.ValidFrom != *original.ValidFrom || *restored.ValidUntil != *original.ValidUntil {
		t.Error("validity dates did not round-trip")
	}
	if *restored.TimeZone != *original.TimeZone {
		t.Error("time zone did not round-trip")
	}
}

func TestAttributes_UnsetFieldsOmitted(t *testing.T) {
	user := &User{Username: "alice"}

	attrs := user.Attributes()

	if len(attrs) != 0 {
		t.Errorf("expected empty attribute map for unrestricted user, got %v", attrs)
	}
}

func TestApplyAttributes_MissingEntriesClearFields(t *testing.T) {
	tz := "UTC"
	user := &User{
		Username:          "alice",
		Disabled:          true,
		AccessWindowStart: &TimeOfDay{Hour: 9},
		ValidUntil:        &Date{Year: 2024, Month: time.December, Day: 31},
		TimeZone:          &tz,
	}

	// The attribute map is the complete restriction state.
	user.ApplyAttributes(map[string]string{}, discardLogger())

	if user.Disabled {
		t.Error("disabled flag should be cleared")
	}
	if user.AccessWindowStart != nil {
		t.Error("access window start should be cleared")
	}
	if user.ValidUntil != nil {
		t.Error("validity end date should be cleared")
	}
	if user.TimeZone != nil {
		t.Error("time zone should be cleared")
	}
}

func TestApplyAttributes_MalformedValueKeepsPreviousValue(t *testing.T) {
	user := &User{
		Username:          "alice",
		AccessWindowStart: &TimeOfDay{Hour: 9},
		ValidFrom:         &Date{Year: 2024, Month: time.June, Day: 1},
	}

	user.ApplyAttributes(map[string]string{
		AttrAccessWindowStart: "not a time",
		AttrValidFrom:         "not a date",
	}, discardLogger())

	if user.AccessWindowStart == nil || *user.AccessWindowStart != (TimeOfDay{Hour: 9}) {
		t.Error("malformed time should leave the previous window start intact")
	}
	if user.ValidFrom == nil || *user.ValidFrom != (Date{Year: 2024, Month: time.June, Day: 1}) {
		t.Error("malformed date should leave the previous validity start intact")
	}
}

func TestApplyAttributes_DisabledRequiresExactTrue(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{value: "true", expected: true},
		{value: "TRUE", expected: false},
		{value: "1", expected: false},
		{value: "", expected: false},
	}

	for _, tt := range tests {
		user := &User{Username: "alice"}
		user.ApplyAttributes(map[string]string{AttrDisabled: tt.value}, discardLogger())
		if user.Disabled != tt.expected {
			t.Errorf("ApplyAttributes(disabled=%q) = %v, want %v", tt.value, user.Disabled, tt.expected)
		}
	}
}
