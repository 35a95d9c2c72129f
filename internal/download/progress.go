package download

import (
	"io"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// TTYProgress renders an mpb bar for one download when stdout is a
// terminal; NewSink falls back to a silent sink otherwise.
type TTYProgress struct {
	bar *mpb.Bar
}

// NewSink returns a TTY-aware progress sink for name, writing to out. When
// out is not a terminal, progress events are discarded.
func NewSink(p *mpb.Progress, out io.Writer, name string) Progress {
	if f, ok := out.(interface{ Fd() uintptr }); !ok || !isatty.IsTerminal(f.Fd()) {
		return noopProgress{}
	}
	bar := p.AddBar(0,
		mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight})),
		mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
	)
	return &TTYProgress{bar: bar}
}

// Start sets the bar's total byte count.
func (t *TTYProgress) Start(total int64) {
	t.bar.SetTotal(total, false)
}

// Advance reports n additional bytes written.
func (t *TTYProgress) Advance(n int64) {
	t.bar.IncrInt64(n)
}

// Done marks the bar complete.
func (t *TTYProgress) Done() {
	t.bar.SetTotal(t.bar.Current(), true)
}
