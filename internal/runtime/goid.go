package runtime

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// Goroutine-id extraction in the style of x/net/http2's gotrack: parse
// the header of a single-goroutine stack dump. Only consulted on the
// re-entrancy slow path (an action apply is in flight), so the cost of
// runtime.Stack is paid rarely.

var goroutineSpace = []byte("goroutine ")

var littleBuf = sync.Pool{
	New: func() any {
		buf := make([]byte, 64)
		return &buf
	},
}

func curGoroutineID() uint64 {
	bp := littleBuf.Get().(*[]byte)
	defer littleBuf.Put(bp)
	b := *bp
	b = b[:runtime.Stack(b, false)]
	// Parse the 4707 out of "goroutine 4707 ["
	b = bytes.TrimPrefix(b, goroutineSpace)
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		panic(fmt.Sprintf("no space found in %q", b))
	}
	n, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("failed to parse goroutine ID out of %q: %v", b, err))
	}
	return n
}
