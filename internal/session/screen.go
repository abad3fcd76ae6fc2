// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package session

import (
	"fmt"
	"strings"
)

// Screen identifies the exclusive screen-level view the session is
// showing. Each orchestrator state maps to exactly one screen.
type Screen int

const (
	// ScreenLoggedOut is the initial state before the login handshake.
	ScreenLoggedOut Screen = iota
	// ScreenRules shows the game rules after login.
	ScreenRules
	// ScreenTutorial shows the swipe-game tutorial.
	ScreenTutorial
	// ScreenGame is the swipe-style preference game.
	ScreenGame
	// ScreenReady is the search form, with list/map/bookings tabs.
	ScreenReady
	// ScreenSearching is the loading state while a search is in flight.
	ScreenSearching
	// ScreenResults shows the ranked restaurant list or map.
	ScreenResults
)

// String returns the wire name of the screen.
func (s Screen) String() string {
	switch s {
	case ScreenLoggedOut:
		return "logged_out"
	case ScreenRules:
		return "rules"
	case ScreenTutorial:
		return "tutorial"
	case ScreenGame:
		return "game"
	case ScreenReady:
		return "ready"
	case ScreenSearching:
		return "searching"
	case ScreenResults:
		return "results"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the screen as its wire name.
func (s Screen) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name into a Screen.
func (s *Screen) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	for candidate := ScreenLoggedOut; candidate <= ScreenResults; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown screen %q", name)
}

// ViewMode is the bottom-nav sub-mode within Ready and Results.
type ViewMode int

const (
	// ViewList shows results or the search form as a list.
	ViewList ViewMode = iota
	// ViewMap shows results on a map.
	ViewMap
	// ViewBookings shows the session's bookings.
	ViewBookings
)

// String returns the wire name of the view mode.
func (v ViewMode) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewMap:
		return "map"
	case ViewBookings:
		return "bookings"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the view mode as its wire name.
func (v ViewMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name into a ViewMode.
func (v *ViewMode) UnmarshalJSON(data []byte) error {
	mode, err := ParseViewMode(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*v = mode
	return nil
}

// ParseViewMode converts a wire name into a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "list":
		return ViewList, nil
	case "map":
		return ViewMap, nil
	case "bookings":
		return ViewBookings, nil
	default:
		return ViewList, fmt.Errorf("unknown view mode %q", s)
	}
}
