package nmfascii

// Progressor receives completion updates from long-running operations.
type Progressor interface {
	Show(percent float32)
	Stop()
}

type nilProgress struct{}

func (np *nilProgress) Show(float32) {}
func (np *nilProgress) Stop()        {}

// Progress tracks a fixed number of steps and forwards their completion
// to a Progressor from a separate goroutine, so the caller never blocks
// on a slow display.
type Progress struct {
	Progressor
	Completed chan struct{}
	Done      chan struct{}
}

// NewProgress starts tracking total steps. A nil Progressor discards all
// updates. Every step must be reported with Indicate before Close.
func NewProgress(prog Progressor, total int) *Progress {
	if prog == nil {
		prog = &nilProgress{}
	}
	p := &Progress{
		Progressor: prog,
		Completed:  make(chan struct{}, total),
		Done:       make(chan struct{}),
	}

	go func(p *Progress) {
		for completion := 0; completion < total; completion++ {
			p.Show(float32(completion) * 100.0 / float32(total))
			<-p.Completed
		}
		p.Show(100.0)
		p.Stop()
		close(p.Done)
	}(p)

	return p
}

// Indicate marks one step as complete.
func (p *Progress) Indicate() {
	p.Completed <- struct{}{}
}

// Close waits for the reporter to finish.
func (p *Progress) Close() {
	<-p.Done
	close(p.Completed)
}
