package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		name     string
		qty      float64
		unit     string
		expected string
	}{
		{"whole number", 1.0, "lb", "1 lb"},
		{"larger whole number", 12, "oz", "12 oz"},
		{"one third", 1.0 / 3.0, "cup", "0.33 cup"},
		{"one and a half", 1.5, "tbsp", "1.5 tbsp"},
		{"two significant figures", 2.75, "clove", "2.8 clove"},
		{"small value", 0.05, "tsp", "0.05 tsp"},
		{"large fractional value", 123.4, "g", "120 g"},
		{"rounds up to whole", 0.999, "cup", "1 cup"},
		{"zero", 0, "cup", "0 cup"},
		{"no unit", 3, "", "3"},
		{"fraction without unit", 0.75, "", "0.75"},
		{"unit with spaces trimmed", 2, " ", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatQuantity(tt.qty, tt.unit))
		})
	}
}
