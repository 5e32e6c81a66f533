package transcript

import (
	"testing"
	"time"

	"botmessenger-backend/internal/models"
)

func TestRenderEmpty(t *testing.T) {
	lines := Render([]models.Message{}, "BOT")
	if len(lines) != 0 {
		t.Errorf("expected no lines for empty input, got %+v", lines)
	}
}

func TestRenderTagsAndFormats(t *testing.T) {
	messages := []models.Message{
		{
			ID:        "1",
			Author:    models.Author{ID: "BOT"},
			Content:   "hi",
			Timestamp: "2024-01-01T00:00:00+00:00",
		},
	}

	lines := Render(messages, "BOT")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	if lines[0].Role != "assistant" {
		t.Errorf("Role = %q, want assistant", lines[0].Role)
	}
	if lines[0].Content != "hi" {
		t.Errorf("Content = %q, want hi", lines[0].Content)
	}

	// formatted in the rendering timezone
	want := mustParse(t, "2024-01-01T00:00:00+00:00").Local().Format("2006-01-02 15:04")
	if lines[0].Time != want {
		t.Errorf("Time = %q, want %q", lines[0].Time, want)
	}
}

func TestRenderReversesToChronological(t *testing.T) {
	// API order is newest first
	messages := []models.Message{
		{ID: "2", Author: models.Author{ID: "u1", Username: "alice"}, Content: "second"},
		{ID: "1", Author: models.Author{ID: "BOT"}, Content: "first"},
	}

	lines := Render(messages, "BOT")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Content != "first" || lines[1].Content != "second" {
		t.Errorf("lines are not chronological: %+v", lines)
	}
	if lines[0].Role != "assistant" || lines[1].Role != "user" {
		t.Errorf("roles are wrong: %+v", lines)
	}
}

func TestRenderAuthorNamePreference(t *testing.T) {
	tests := []struct {
		name   string
		author models.Author
		want   string
	}{
		{"global name preferred", models.Author{ID: "1", Username: "handle", GlobalName: "Display"}, "Display"},
		{"falls back to username", models.Author{ID: "1", Username: "handle"}, "handle"},
		{"unknown author", models.Author{ID: "1"}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Render([]models.Message{{ID: "1", Author: tt.author}}, "BOT")
			if lines[0].Author != tt.want {
				t.Errorf("Author = %q, want %q", lines[0].Author, tt.want)
			}
		})
	}
}

func TestFormatTimestampUnparseable(t *testing.T) {
	tests := []string{"", "yesterday", "2024-13-45T99:00:00Z"}

	for _, timestamp := range tests {
		if got := FormatTimestamp(timestamp); got != "" {
			t.Errorf("FormatTimestamp(%q) = %q, want empty string", timestamp, got)
		}
	}
}

func mustParse(t *testing.T, timestamp string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}
