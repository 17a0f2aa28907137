package progress

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// BarReporter renders one mpb progress bar per file, for non-interactive
// output (piped stdout, CI logs).
type BarReporter struct {
	progress *mpb.Progress
	bar      *mpb.Bar
}

// NewBarReporter constructs a BarReporter writing to w.
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{progress: mpb.New(mpb.WithOutput(w))}
}

func (r *BarReporter) StartFile(name string, size uint64) {
	r.bar = r.progress.AddBar(int64(size),
		mpb.PrependDecorators(decor.Name(name)),
		mpb.AppendDecorators(decor.Percentage(), decor.Name(" "), decor.CountersKibiByte("% .1f / % .1f")),
	)
}

func (r *BarReporter) Advance(n uint64) {
	if r.bar != nil {
		r.bar.IncrInt64(int64(n))
	}
}

func (r *BarReporter) FinishFile() {
	if r.bar != nil {
		r.bar.SetTotal(-1, true)
	}
}

func (r *BarReporter) Close() {
	r.progress.Wait()
}
