// Package format renders quantities for terminal output.
package format

import "fmt"

var byteUnits = [...]string{"B", "KB", "MB", "GB", "TB", "PB"}

// HumanizeBytes renders n with a binary-scaled unit, e.g. 1536 -> "1.5 KB".
func HumanizeBytes(n uint64) string {
	v := float64(n)
	exp := 0
	for v >= 1024 && exp < len(byteUnits)-1 {
		v /= 1024
		exp++
	}
	if exp == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[exp])
}
