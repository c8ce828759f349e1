/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cyclic.go
Description: Cyclic pattern generation for offset discovery. Generates de
Bruijn sequences over a printable alphabet so that any window of SubseqLen
bytes occurs exactly once, letting a learner read the distance from a buffer
to the return slot straight out of a crash instead of counting bytes.
*/

package pattern

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"

	// SubseqLen is the window size that is unique within a generated
	// pattern. Four printable bytes cover 456,976 positions, far more
	// than any stack frame.
	SubseqLen = 4
)

// ErrProbeNotFound is returned by Offset when the probe does not occur in
// the pattern.
var ErrProbeNotFound = errors.New("probe not found in pattern")

// Cyclic generates n bytes of a de Bruijn pattern over a lowercase
// alphabet. Every SubseqLen-byte window in the result is unique.
func Cyclic(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pattern length must be positive: %d", n)
	}

	seq := deBruijn(len(alphabet), SubseqLen)
	if n > len(seq) {
		return nil, fmt.Errorf("pattern length %d exceeds the %d unique bytes a %d-byte window allows",
			n, len(seq), SubseqLen)
	}

	out := make([]byte, n)
	for i, idx := range seq[:n] {
		out[i] = alphabet[idx]
	}
	return out, nil
}

// Offset reports the position of probe within a cyclic pattern, which is
// the number of padding bytes between the start of the overflowed buffer
// and wherever the probe bytes landed. The probe must be at least
// SubseqLen bytes for the answer to be unambiguous.
func Offset(probe []byte) (int, error) {
	if len(probe) < SubseqLen {
		return 0, fmt.Errorf("probe must be at least %d bytes, got %d", SubseqLen, len(probe))
	}

	// Search the full sequence so any valid probe is found regardless of
	// how long the generated pattern was.
	haystack, err := Cyclic(maxLen())
	if err != nil {
		return 0, err
	}

	i := bytes.Index(haystack, probe[:SubseqLen])
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrProbeNotFound, probe)
	}
	return i, nil
}

// maxLen is the longest pattern a SubseqLen window supports.
func maxLen() int {
	n := 1
	for i := 0; i < SubseqLen; i++ {
		n *= len(alphabet)
	}
	return n
}

// deBruijn generates the index sequence B(k, n) using the standard
// recursive construction, with the wraparound tail appended so every
// n-byte window of the linearized sequence is unique.
func deBruijn(k, n int) []byte {
	a := make([]byte, k*n+1)
	var seq []byte

	var db func(t, p int)
	db = func(t, p int) {
		if t > n {
			if n%p == 0 {
				seq = append(seq, a[1:p+1]...)
			}
			return
		}
		a[t] = a[t-p]
		db(t+1, p)
		for j := int(a[t-p]) + 1; j < k; j++ {
			a[t] = byte(j)
			db(t+1, t)
		}
	}
	db(1, 1)

	// Wrap the cycle so windows spanning the end stay unique.
	seq = append(seq, seq[:n-1]...)
	return seq
}
