// Package statsview serves charts of the emulator's runtime statistics
// (heap, goroutines, GC pauses) over HTTP using go-echarts/statsview. The
// server is compiled in only with the statsview build tag:
//
//	go build -tags statsview ./cmd/desktop
//	desktop -statsview localhost:12600 game.ch8
//
// Without the tag Launch prints a hint and returns a no-op stop function.
package statsview
