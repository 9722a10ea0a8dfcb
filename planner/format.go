package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatQuantity renders a whole quantity as an integer and anything else with two significant
// figures, followed by the unit.
func FormatQuantity(qty float64, unit string) string {
	var num string
	if qty == math.Trunc(qty) && math.Abs(qty) < 1e15 {
		num = strconv.FormatInt(int64(qty), 10)
	} else {
		num = twoSignificant(qty)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", num, unit))
}

func twoSignificant(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	decimals := 1 - int(math.Floor(math.Log10(math.Abs(v))))
	if decimals < 0 {
		scale := math.Pow(10, float64(-decimals))
		v = math.Round(v/scale) * scale
		decimals = 0
	}

	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
