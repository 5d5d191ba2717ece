package debug

import (
	"log/slog"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"client", []string{"client"}},
		{"client,probe", []string{"client", "probe"}},
		{" Client , STREAMING ", []string{"client", "streaming"}},
		{"all", []string{"all"}},
	}

	for _, tt := range tests {
		m := parseCategories(tt.input)
		if len(m) != len(tt.want) {
			t.Errorf("parseCategories(%q) = %v, want %d entries", tt.input, m, len(tt.want))
			continue
		}
		for _, cat := range tt.want {
			if !m[cat] {
				t.Errorf("parseCategories(%q) missing %q", tt.input, cat)
			}
		}
	}
}

func TestEnabled(t *testing.T) {
	saved := categories
	defer func() { categories = saved }()

	categories = parseCategories("client,streaming")
	if !Enabled("client") {
		t.Error("client should be enabled")
	}
	if Enabled("probe") {
		t.Error("probe should not be enabled")
	}

	categories = parseCategories("all")
	if !Enabled("anything") {
		t.Error("'all' should enable every category")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{" info ", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("Truncate long = %q", got)
	}
}
