//go:build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"gochip8/pkg/logger"
)

// DefaultAddr is used when Launch is given an empty address.
const DefaultAddr = "localhost:12600"

// one sample per frame batch, about a minute of history
const (
	sampleIntervalMS = 500
	historyPoints    = 120
)

// Launch serves the runtime charts on addr in the background. The returned
// function shuts the server down.
func Launch(addr string, output io.Writer) (stop func()) {
	if addr == "" {
		addr = DefaultAddr
	}
	viewer.SetConfiguration(
		viewer.WithAddr(addr),
		viewer.WithInterval(sampleIntervalMS),
		viewer.WithMaxPoints(historyPoints),
	)

	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "runtime charts at http://%s/debug/statsview\n", addr)
	logger.Logf(logger.Allow, "statsview", "serving on %s", addr)
	return mgr.Stop
}

func Available() bool { return true }
