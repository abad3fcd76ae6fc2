// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package models

import "testing"

func TestRestaurantDeliveryCapable(t *testing.T) {
	tests := []struct {
		name string
		r    Restaurant
		want bool
	}{
		{
			name: "no links",
			r:    Restaurant{Name: "Quiet Corner"},
			want: false,
		},
		{
			name: "only uber eats",
			r:    Restaurant{UberEatsURL: "https://ubereats.example/quiet-corner"},
			want: true,
		},
		{
			name: "only door dash",
			r:    Restaurant{DoorDashURL: "https://doordash.example/x"},
			want: true,
		},
		{
			name: "only grubhub",
			r:    Restaurant{GrubhubURL: "https://grubhub.example/x"},
			want: true,
		},
		{
			name: "only postmates",
			r:    Restaurant{PostmatesURL: "https://postmates.example/x"},
			want: true,
		},
		{
			name: "only direct ordering page",
			r:    Restaurant{OrderURL: "https://quietcorner.example/order"},
			want: true,
		},
		{
			name: "whitespace link does not count",
			r:    Restaurant{UberEatsURL: "   "},
			want: false,
		},
		{
			name: "all links populated",
			r: Restaurant{
				UberEatsURL:  "a",
				DoorDashURL:  "b",
				GrubhubURL:   "c",
				PostmatesURL: "d",
				OrderURL:     "e",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.DeliveryCapable(); got != tt.want {
				t.Errorf("DeliveryCapable() = %v, want %v", got, tt.want)
			}
		})
	}
}
