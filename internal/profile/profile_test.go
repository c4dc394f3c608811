package profile

import (
	"errors"
	"testing"
)

func TestClampInks(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 2},
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 3},
		{10, 10},
		{11, 10},
		{100, 10},
	}
	for _, tc := range cases {
		if got := ClampInks(tc.in); got != tc.want {
			t.Errorf("ClampInks(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDefaultProfileValid(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	if p.NumInks() != 5 {
		t.Errorf("default profile has %d inks, want 5", p.NumInks())
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	p := &Profile{Name: "empty"}
	if err := p.Validate(); !errors.Is(err, ErrNoInks) {
		t.Errorf("expected ErrNoInks, got %v", err)
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	p := &Profile{
		Name: "dup",
		Inks: []Ink{{ID: 0}, {ID: 0}},
	}
	if err := p.Validate(); !errors.Is(err, ErrDuplicateInk) {
		t.Errorf("expected ErrDuplicateInk, got %v", err)
	}
}

func TestValidateRejectsGaps(t *testing.T) {
	p := &Profile{
		Name: "gap",
		Inks: []Ink{{ID: 0}, {ID: 2}},
	}
	if err := p.Validate(); !errors.Is(err, ErrNonContiguous) {
		t.Errorf("expected ErrNonContiguous, got %v", err)
	}
}
