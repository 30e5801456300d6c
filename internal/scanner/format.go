package scanner

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with 1024-based units and two decimals,
// picking the largest unit that keeps the value at or above one. Zero is
// rendered as "0 B".
func FormatSize(size uint64) string {
	if size == 0 {
		return "0 B"
	}

	value := float64(size)
	unit := 0

	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}
