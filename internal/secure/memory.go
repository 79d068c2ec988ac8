// Package secure reduces the in-memory exposure window of secret
// material. Go's garbage collector can move and duplicate data, so
// zeroing is best-effort: prefer []byte over string for secrets and
// wipe them as soon as they are no longer needed.
package secure

import "runtime"

// ZeroBytes overwrites data with zeros in a way the compiler will not
// optimize away.
func ZeroBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

// ZeroAll zeroes multiple byte slices at once.
func ZeroAll(slices ...[]byte) {
	for _, b := range slices {
		ZeroBytes(b)
	}
}

// Copy returns an independent copy of data so the original can be
// wiped without invalidating the copy.
func Copy(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
