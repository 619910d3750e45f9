package main

import (
	"strings"
	"testing"
	"time"
)

func TestRenderText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		notWant string
	}{
		{"emphasis", "stops *every* hour", "<em>every</em>", ""},
		{"scripts are stripped", "hi <script>alert(1)</script>", "hi", "<script>"},
		{"autolink", "see https://example.com", `href="https://example.com"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderText(tt.in)
			if !strings.Contains(got, tt.want) {
				t.Errorf("renderText() = %q, want it to contain %q", got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("renderText() = %q, must not contain %q", got, tt.notWant)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	if got := hfSlug("Conveyor stops"); got != "conveyor-stops" {
		t.Errorf("hfSlug() = %q", got)
	}
	if got := hfTime(time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)); got != "03.01.2024 09:05" {
		t.Errorf("hfTime() = %q", got)
	}
}
