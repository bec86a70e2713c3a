package domain

import "fmt"

const (
	kibibyte = 1 << 10
	mebibyte = 1 << 20
	gibibyte = 1 << 30
)

// FormatByteSize renders a byte count for display. Sizes below one MiB
// are shown as whole kilobytes, sizes below 1000 MB as megabytes with
// one decimal, and everything above as gigabytes with two decimals.
func FormatByteSize(bytes int64) string {
	switch {
	case bytes < mebibyte:
		kb := float64(bytes) / kibibyte
		return fmt.Sprintf("%.0f KB", kb)
	case bytes < 1000*mebibyte:
		mb := float64(bytes) / mebibyte
		return fmt.Sprintf("%.1f MB", mb)
	default:
		gb := float64(bytes) / gibibyte
		return fmt.Sprintf("%.2f GB", gb)
	}
}
