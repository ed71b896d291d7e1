package stockroom

import "fmt"

// debugAssert panics when cond is false in builds tagged stockroomdebug.
// Release builds trust the caller.
func debugAssert(cond bool, format string, args ...any) {
	if debugAssertions && !cond {
		panic("stockroom: invariant violated: " + fmt.Sprintf(format, args...))
	}
}
