//go:build !statsview

package statsview

import (
	"fmt"
	"io"
)

// Launch reports that the chart server was not built in. The returned
// function does nothing.
func Launch(addr string, output io.Writer) (stop func()) {
	fmt.Fprintf(output, "runtime charts for %q not available: build with -tags statsview\n", addr)
	return func() {}
}

func Available() bool { return false }
