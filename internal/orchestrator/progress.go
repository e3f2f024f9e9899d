package orchestrator

// ProgressListener receives overall run progress in percent and a message.
// It is called synchronously from the goroutine running the orchestrator.
type ProgressListener interface {
	OnProgress(overallPercent float64, message string)
}

// ProgressFunc adapts a function to ProgressListener.
type ProgressFunc func(overallPercent float64, message string)

// OnProgress calls f.
func (f ProgressFunc) OnProgress(overallPercent float64, message string) {
	f(overallPercent, message)
}

type noopListener struct{}

func (noopListener) OnProgress(float64, string) {}

// bandTracker maps per-target fractions onto the overall percentage.
// Target i of n owns the band [i*100/n, (i+1)*100/n].
type bandTracker struct {
	listener ProgressListener
	total    int
	last     float64
}

func newBandTracker(listener ProgressListener, total int) *bandTracker {
	if listener == nil {
		listener = noopListener{}
	}
	return &bandTracker{listener: listener, total: total}
}

// report sends progress for target index with fraction p of its band.
// p is clamped to [0,1] and the reported value never decreases.
func (b *bandTracker) report(index int, p float64, message string) {
	if b.total == 0 {
		return
	}
	p = min(max(p, 0), 1)
	overall := (float64(index) + p) * 100 / float64(b.total)
	b.emit(overall, message)
}

// finish reports exactly 100.
func (b *bandTracker) finish(message string) {
	b.emit(100, message)
}

func (b *bandTracker) emit(overall float64, message string) {
	overall = min(max(overall, b.last), 100)
	b.last = overall
	b.listener.OnProgress(overall, message)
}
