package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAccountMissing(t *testing.T) {
	cases := []struct {
		acc  Account
		want int
	}{
		{Account{Current: 50, Max: 100}, 50},
		{Account{Current: 100, Max: 100}, 0},
		{Account{Current: 120, Max: 100}, 0},
		{Account{Current: 0, Max: 1}, 1},
	}
	for _, c := range cases {
		if got := c.acc.Missing(); got != c.want {
			t.Fatalf("missing for %+v: expected %d got %d", c.acc, c.want, got)
		}
		if c.acc.Full() != (c.want == 0) {
			t.Fatalf("full mismatch for %+v", c.acc)
		}
	}
}

func TestValidateCharges(t *testing.T) {
	if err := ValidateCharges(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateCharges(10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range [][2]int{{-1, 10}, {11, 10}, {0, 0}} {
		err := ValidateCharges(c[0], c[1])
		if !errors.Is(err, ErrInvalidAccount) {
			t.Fatalf("expected ErrInvalidAccount for %v, got %v", c, err)
		}
	}
}

func TestAccountFillRatio(t *testing.T) {
	a := Account{Current: 25, Max: 100}
	if a.FillRatio() != 0.25 {
		t.Fatalf("expected 0.25 got %v", a.FillRatio())
	}
	if (Account{}).FillRatio() != 0 {
		t.Fatalf("expected 0 for empty account")
	}
}

func TestDefaultName(t *testing.T) {
	if DefaultName(3) != "Account 3" {
		t.Fatalf("unexpected name %q", DefaultName(3))
	}
}

func TestNormalizeName(t *testing.T) {
	long := strings.Repeat("é", 45)
	cases := []struct {
		in   string
		want string
	}{
		{"  main  ", "main"},
		{"", "Account 7"},
		{"   ", "Account 7"},
		{long, strings.Repeat("é", MaxNameLength)},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in, 7); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
