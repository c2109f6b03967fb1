package util

import (
	"crypto/rand"
)

// RandomSalt returns size bytes drawn uniformly from [1,122]. The range
// excludes NUL so salts survive the NUL-terminated handshake fields.
func RandomSalt(size int) []byte {
	result := make([]byte, size)
	buf := make([]byte, size)
	filled := 0
	for filled < size {
		if _, err := rand.Read(buf); err != nil {
			panic("util: rand.Read failed: " + err.Error())
		}
		for _, b := range buf {
			if filled == size {
				break
			}
			// 244 = 2*122; rejecting the tail keeps the draw uniform.
			if b >= 244 {
				continue
			}
			result[filled] = b%122 + 1
			filled++
		}
	}
	return result
}
