package observability

import "testing"

func Test_normalizeFeedback(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"more", "more", "more"},
		{"less", "less", "less"},
		{"perfect", "perfect", "perfect"},
		{"unknown empty", "", "unknown"},
		{"unknown random", "spicier", "unknown"},
		{"unknown case", "More", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeFeedback(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeFeedback(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func Test_normalizeFeedbackOutcome(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"updated", "updated", "updated"},
		{"not_found", "not_found", "not_found"},
		{"invalid", "invalid", "invalid"},
		{"error", "error", "error"},
		{"unknown empty", "", "unknown"},
		{"unknown random", "skipped", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeFeedbackOutcome(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeFeedbackOutcome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func Test_normalizeOperation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"insert", "insert", "insert"},
		{"update", "update", "update"},
		{"replace", "replace", "replace"},
		{"delete", "delete", "delete"},
		{"unknown empty", "", "unknown"},
		{"unknown random", "drop", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeOperation(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeOperation(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func Test_normalizeIngestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"indexed", "indexed", "indexed"},
		{"rejected", "rejected", "rejected"},
		{"ignored", "ignored", "ignored"},
		{"error", "error", "error"},
		{"unknown empty", "", "unknown"},
		{"unknown random", "dropped", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeIngestOutcome(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeIngestOutcome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func Test_normalizeCacheName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"query_embedding", "query_embedding", "query_embedding"},
		{"other empty", "", "other"},
		{"other random", "webhook_list", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeCacheName(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeCacheName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
