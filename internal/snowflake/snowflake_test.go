package snowflake

import (
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"17 digits", "12345678901234567", true},
		{"20 digits", "12345678901234567890", true},
		{"too short", "1234567890123456", false},
		{"too long", "123456789012345678901", false},
		{"empty", "", false},
		{"letters", "12345678901234567a", false},
		{"negative", "-1234567890123456789", false},
		{"whitespace", " 12345678901234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.id); got != tt.valid {
				t.Errorf("IsValid(%q) = %t, want %t", tt.id, got, tt.valid)
			}
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse("not a snowflake")
	if err == nil {
		t.Error("expected an error for an invalid snowflake, got nil")
	}
}

func TestTimestamp(t *testing.T) {
	// a real snowflake from early 2015 sits right after the discord epoch
	id, err := Parse("21154535154122752")
	if err != nil {
		t.Fatal(err)
	}

	ts := Timestamp(id)
	epoch := time.UnixMilli(1420070400000)

	if ts.Before(epoch) {
		t.Errorf("timestamp %s is before the discord epoch", ts)
	}
	if ts.After(epoch.AddDate(1, 0, 0)) {
		t.Errorf("timestamp %s is more than a year after the epoch", ts)
	}
}
