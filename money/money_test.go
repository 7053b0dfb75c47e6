package money

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/francescopitzalis1989/Renthubber/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{in: "12.50", want: 1250},
		{in: "7", want: 700},
		{in: " 0.05 ", want: 5},
		{in: "1.500", want: 150},
		{in: "-3.10", want: -310},
		{in: "1.005", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, apperr.ErrInvalidAmount) {
				t.Fatalf("Parse(%q): expected INVALID_AMOUNT, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPercentRoundsHalfUpOnce(t *testing.T) {
	tests := []struct {
		amount Money
		pct    string
		want   Money
	}{
		{amount: 10000, pct: "10", want: 1000},
		{amount: 4500, pct: "10", want: 450},
		{amount: 5, pct: "10", want: 1},       // 0.5 cent rounds up
		{amount: 4, pct: "10", want: 0},       // 0.4 cent rounds down
		{amount: 333, pct: "33.3", want: 111}, // 110.889
		{amount: 1999, pct: "2.5", want: 50},  // 49.975
		{amount: 0, pct: "50", want: 0},
		{amount: 5000, pct: "100", want: 5000},
	}

	for _, tt := range tests {
		got := tt.amount.Percent(decimal.RequireFromString(tt.pct))
		if got != tt.want {
			t.Fatalf("%d * %s%% = %d, want %d", tt.amount, tt.pct, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := FromMinor(1200).String(); got != "12.00" {
		t.Fatalf("expected 12.00, got %s", got)
	}
	if got := FromMinor(5).String(); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
	if got := FromMajor(88).String(); got != "88.00" {
		t.Fatalf("expected 88.00, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	out := FromMinor(1250).Format(language.Italian, currency.EUR)
	if !strings.Contains(out, "12") {
		t.Fatalf("expected formatted amount to contain 12, got %q", out)
	}
}

func TestValidPercent(t *testing.T) {
	for _, p := range []string{"0", "5", "99.99", "100"} {
		if !ValidPercent(decimal.RequireFromString(p)) {
			t.Fatalf("expected %s to be valid", p)
		}
	}
	for _, p := range []string{"-0.01", "100.01", "250"} {
		if ValidPercent(decimal.RequireFromString(p)) {
			t.Fatalf("expected %s to be invalid", p)
		}
	}
}

func TestSum(t *testing.T) {
	if got := Sum(100, 250, -50); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
	if got := Sum(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
