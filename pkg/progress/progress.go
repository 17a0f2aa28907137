// Package progress reports file-transfer progress for cmd/nxdt-host.
// Two Reporter implementations are provided: a bubbletea TUI for
// interactive terminals and an mpb bar renderer for piped/non-interactive
// output, grounded respectively on internal/cli/ui's Model and the
// vbauerster/mpb idiom.
package progress

// Reporter receives progress events as the host companion receives a file.
// Advance reports bytes received since the last call, not a running total.
type Reporter interface {
	StartFile(name string, size uint64)
	Advance(n uint64)
	FinishFile()
	Close()
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) StartFile(string, uint64) {}
func (NopReporter) Advance(uint64)           {}
func (NopReporter) FinishFile()              {}
func (NopReporter) Close()                   {}
