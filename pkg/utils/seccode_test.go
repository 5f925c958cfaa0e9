package utils

import "testing"

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"72030", "7203"},  // 5-digit feed code
		{"7203", "7203"},   // already canonical
		{" 72030 ", "7203"},
		{"", ""},
		{"   ", ""},
		{"130A0", "130A"}, // alphanumeric codes exist since 2024
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToFeedCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"7203", "72030"},
		{"130A", "130A0"},
		{"72", "00720"},
	}
	for _, tt := range tests {
		if got := ToFeedCode(tt.in); got != tt.want {
			t.Errorf("ToFeedCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSecurityCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"7203", true},
		{"720", false},
		{"72030", false},
		{"トヨタ", false},
		{"72a3", false},
	}
	for _, tt := range tests {
		if got := IsSecurityCode(tt.in); got != tt.want {
			t.Errorf("IsSecurityCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestYahooTickerRoundTrip(t *testing.T) {
	if got := ToYahooTicker("7203"); got != "7203.T" {
		t.Errorf("ToYahooTicker = %q, want 7203.T", got)
	}
	if got := ToYahooTicker("7203.T"); got != "7203.T" {
		t.Errorf("ToYahooTicker should leave suffixed symbols alone, got %q", got)
	}
	if got := FromYahooTicker("7203.T"); got != "7203" {
		t.Errorf("FromYahooTicker = %q, want 7203", got)
	}
}
