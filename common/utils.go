package common

import "fmt"

// Assert checks a condition and panics if it is false.
//
// Use it for invariants of the pool's own bookkeeping (e.g., a pin count going negative), where continuing
// would risk writing corrupted pages back to disk. Conditions a caller can trigger, such as unpinning a page
// that is not pinned or exhausting the pool, are reported as errors instead.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
