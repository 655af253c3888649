package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Status
	}{
		{"well under threshold", Input{Utilization: 35, WarnAtPct: 80}, Ok},
		{"at threshold", Input{Utilization: 80, WarnAtPct: 80}, Warn},
		{"above threshold", Input{Utilization: 91.2, WarnAtPct: 80}, Warn},
		{"blocking violation", Input{Utilization: 5, WarnAtPct: 80, Blocking: true}, Error},
		{"no threshold configured", Input{Utilization: 99}, Ok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestClassifyUsesUnroundedValues(t *testing.T) {
	// 80.004% displays as 80.00% but the true value is above the
	// threshold; classification must not be fooled by rounding.
	got := Classify(Input{Utilization: 80.004, WarnAtPct: 80})
	assert.Equal(t, Warn, got)

	got = Classify(Input{Utilization: 79.996, WarnAtPct: 80})
	assert.Equal(t, Ok, got)
}

func TestWorst(t *testing.T) {
	assert.Equal(t, Error, Worst(Warn, Error))
	assert.Equal(t, Warn, Worst(Ok, Warn))
	assert.Equal(t, Ok, Worst(Ok, Ok))
}
