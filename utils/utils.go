package utils

import (
	// Go Internal Packages
	"slices"
	"strconv"
	"strings"
)

// JoinInt32Slice renders partition numbers as a sorted comma separated list.
// The input is not modified.
func JoinInt32Slice(ints []int32) string {
	sorted := slices.Clone(ints)
	slices.Sort(sorted)

	strs := make([]string, len(sorted))
	for i, v := range sorted {
		strs[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(strs, ",")
}
