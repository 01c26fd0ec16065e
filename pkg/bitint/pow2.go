// SPDX-License-Identifier: MIT

// Package bitint holds the power-of-2 helpers used to size PortAudio capture
// buffers.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Sizes <= 0 yield 1.
// The size-1 keeps exact powers of 2 unchanged.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
