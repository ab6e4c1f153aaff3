package aggregate

// Progress receives the share of processed events, 0..100.
// Implementations are called from the scanning goroutine and must hand the
// value over to their own context instead of touching it directly.
type Progress interface {
	Report(percent int)
}

type ProgressFunc func(percent int)

func (f ProgressFunc) Report(percent int) {
	f(percent)
}

// ChannelProgress forwards values to a buffered channel. When the reader falls
// behind, intermediate values are dropped; 100 is always delivered.
//
// Report(100) blocks until there is room in C, so a reader must drain C until
// it is closed. Report must not be called after Close, it panics on the closed
// channel.
type ChannelProgress struct {
	C chan int
}

func NewChannelProgress(size int) *ChannelProgress {
	if size < 1 {
		size = 1
	}
	return &ChannelProgress{C: make(chan int, size)}
}

func (p *ChannelProgress) Report(percent int) {
	if percent >= 100 {
		p.C <- percent
		return
	}
	select {
	case p.C <- percent:
	default:
	}
}

// Close is called by the producer once the scan has finished. It ends the
// reader's range loop over C.
func (p *ChannelProgress) Close() {
	close(p.C)
}

type noProgress struct{}

func (noProgress) Report(int) {}
