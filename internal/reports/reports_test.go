package reports

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func at(sec int, radius float64) LocationReport {
	return LocationReport{
		Latitude:   52.37 + float64(sec)/1000,
		Longitude:  4.89,
		Confidence: radius,
		ObservedAt: base.Add(time.Duration(sec) * time.Second),
	}
}

func Test_Select(t *testing.T) {
	cases := []struct {
		name     string
		input    []LocationReport
		expected LocationReport
		found    bool
	}{
		{
			name:  "empty set",
			input: nil,
			found: false,
		},
		{
			name:     "single report",
			input:    []LocationReport{at(5, 10)},
			expected: at(5, 10),
			found:    true,
		},
		{
			name:     "latest wins regardless of precision",
			input:    []LocationReport{at(10, 1), at(30, 50), at(20, 2)},
			expected: at(30, 50),
			found:    true,
		},
		{
			name:     "shared latest timestamp prefers smaller radius",
			input:    []LocationReport{at(10, 5), at(20, 8), at(20, 3)},
			expected: at(20, 3),
			found:    true,
		},
		{
			name:     "all timestamps equal",
			input:    []LocationReport{at(0, 12), at(0, 4), at(0, 9)},
			expected: at(0, 4),
			found:    true,
		},
		{
			name: "identical time and radius falls back to coordinates",
			input: []LocationReport{
				{Latitude: 1, Longitude: 2, Confidence: 5, ObservedAt: base},
				{Latitude: 3, Longitude: 2, Confidence: 5, ObservedAt: base},
			},
			expected: LocationReport{Latitude: 3, Longitude: 2, Confidence: 5, ObservedAt: base},
			found:    true,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Select(tt.input)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func Test_SelectIsOrderIndependent(t *testing.T) {
	input := []LocationReport{
		at(10, 5), at(20, 8), at(20, 3), at(15, 1),
		{Latitude: 9, Longitude: 9, Confidence: 3, ObservedAt: base.Add(20 * time.Second)},
	}
	expected, _ := Select(input)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		shuffled := append([]LocationReport(nil), input...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, found := Select(shuffled)
		assert.True(t, found)
		assert.Equal(t, expected, got)
	}
}
