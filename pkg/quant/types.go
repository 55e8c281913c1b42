package quant

import (
	"sync/atomic"
)

// Seq is a per-slot request sequence number. Zero means "never issued".
type Seq uint64

// NextSeq generates the next sequence number atomically.
func NextSeq(ptr *uint64) Seq {
	return Seq(atomic.AddUint64(ptr, 1))
}
