// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"strconv"
	"strings"
)

// DollarsPerTerabyte is the Athena scan price used for cost estimates.
// Most regions charge $5 per TB scanned.
const DollarsPerTerabyte = 5.0

const terabyte = 1 << 40

var sizeSuffixes = []string{"B", "KB", "MB", "GB", "TB"}

// HumanizeBytes renders n with base-1024 units and up to two decimals,
// e.g. 1536 -> "1.5 KB".
func HumanizeBytes(n int64) string {
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeSuffixes)-1 {
		v /= 1024
		i++
	}
	num := strconv.FormatFloat(v, 'f', 2, 64)
	num = strings.TrimRight(num, "0")
	num = strings.TrimRight(num, ".")
	return num + " " + sizeSuffixes[i]
}

// ApproximateCost returns the dollar cost of scanning n bytes.
func ApproximateCost(n int64) float64 {
	return float64(n) / terabyte * DollarsPerTerabyte
}
