// Package profile models the material ink sets a pattern is printed with.
//
// An ink is a physical marking material identified by a small integer ID;
// the pattern pipeline treats IDs as its output alphabet and everything
// visual (names, colors) stays here, at the boundary with the printing
// and scanning subsystems.
package profile

import (
	"errors"
	"fmt"
)

// Ink count bounds. Counts outside this range are clamped, not rejected;
// a deliberate normalization policy rather than an error.
const (
	MinInks = 2
	MaxInks = 10
)

// Errors
var (
	ErrNoInks        = errors.New("profile: profile has no inks")
	ErrDuplicateInk  = errors.New("profile: duplicate ink ID")
	ErrNonContiguous = errors.New("profile: ink IDs must be contiguous from 0")
)

// Ink is one marking material with its visual color.
type Ink struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	R    uint8  `json:"r"`
	G    uint8  `json:"g"`
	B    uint8  `json:"b"`
}

// Profile is a named set of inks available to a manufacturing run.
type Profile struct {
	Name string `json:"name"`
	Inks []Ink  `json:"inks"`
}

// Default returns the standard temperature-reactive ink set.
func Default() *Profile {
	return &Profile{
		Name: "Standard Temperature-Reactive Inks",
		Inks: []Ink{
			{ID: 0, Name: "75C Reactive", R: 0, G: 229, B: 255},
			{ID: 1, Name: "75C Protected", R: 0, G: 188, B: 212},
			{ID: 2, Name: "55C Reactive", R: 29, G: 233, B: 182},
			{ID: 3, Name: "55C Protected", R: 0, G: 150, B: 136},
			{ID: 4, Name: "35C Marker", R: 33, G: 150, B: 243},
		},
	}
}

// ClampInks normalizes an ink count into [MinInks, MaxInks].
func ClampInks(n int) int {
	if n < MinInks {
		return MinInks
	}
	if n > MaxInks {
		return MaxInks
	}
	return n
}

// Validate checks that ink IDs are distinct and contiguous from 0, which
// is what the pattern alphabet [0,numInks) requires.
func (p *Profile) Validate() error {
	if len(p.Inks) == 0 {
		return ErrNoInks
	}

	seen := make(map[int]bool, len(p.Inks))
	for _, ink := range p.Inks {
		if seen[ink.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateInk, ink.ID)
		}
		seen[ink.ID] = true
	}

	for id := 0; id < len(p.Inks); id++ {
		if !seen[id] {
			return fmt.Errorf("%w: missing ID %d", ErrNonContiguous, id)
		}
	}

	return nil
}

// NumInks returns the alphabet size this profile supports.
func (p *Profile) NumInks() int {
	return len(p.Inks)
}
