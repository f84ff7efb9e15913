package render

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Units names understood by ByteFormatter.
const (
	UnitsClassic = "classic"
	UnitsIEC     = "iec"
)

var classicUnits = [...]string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count with two decimals, dividing by 1024
// while the value is at least 1024 and a larger unit exists. GB is the
// largest unit, so 2 TiB prints as "2048.00 GB".
func FormatBytes(bytes uint64) string {
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(classicUnits)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, classicUnits[i])
}

// FormatBytesIEC renders a byte count with IEC suffixes ("15 GiB").
func FormatBytesIEC(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// ByteFormatter returns the formatter for a units name. Unknown names get
// FormatBytes.
func ByteFormatter(units string) func(uint64) string {
	if units == UnitsIEC {
		return FormatBytesIEC
	}
	return FormatBytes
}
