// Package codegen issues sequential human-readable codes such as LA000042 and SD0007.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	AssetCodeWidth = 6
	StaffPrefix    = "SD"
	StaffCodeWidth = 4
)

// NextCode returns the code following last under prefix.
// An empty last, or one whose suffix is not a number, restarts at 1.
// Callers must pick last as the highest code under prefix; the fixed width keeps
// lexicographic order equal to numeric order.
func NextCode(prefix, last string, width int) string {
	n := 1
	if suffix, ok := strings.CutPrefix(last, prefix); ok && suffix != "" {
		if parsed, err := strconv.Atoi(suffix); err == nil && parsed >= 0 {
			n = parsed + 1
		}
	}
	return Format(prefix, n, width)
}

// Format renders n zero-padded to width after prefix
func Format(prefix string, n, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// NextAssetCode is NextCode with the asset code width
func NextAssetCode(prefix, last string) string {
	return NextCode(prefix, last, AssetCodeWidth)
}

// NextStaffCode is NextCode for staff codes
func NextStaffCode(last string) string {
	return NextCode(StaffPrefix, last, StaffCodeWidth)
}
