package cadence

import (
	"math"
	"strconv"
)

// FormatInterval renders a day count as a short label: "<1d", "3d", "2w",
// "5mo", "1y".
func FormatInterval(days float64) string {
	switch {
	case !(days >= 1):
		return "<1d"
	case days < 7:
		return strconv.Itoa(int(math.Round(days))) + "d"
	case days < 30:
		return strconv.Itoa(int(math.Round(days/7))) + "w"
	case days < 365:
		return strconv.Itoa(int(math.Round(days/30))) + "mo"
	default:
		return strconv.Itoa(int(math.Round(days/365))) + "y"
	}
}
