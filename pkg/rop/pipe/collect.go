package pipe

import "github.com/ib-77/ropline/pkg/rop/message"

// RunAll submits items from a separate goroutine while draining the last
// link on the caller's, then shuts p down. It returns the Work and Skip
// messages in submission order.
//
// p must be freshly built and owned by the caller for the whole run: no
// Quit submitted or received yet, and no other goroutine submitting,
// receiving or shutting it down.
func RunAll[In, Out any](p *Pipeline[In, Out], items []In) ([]message.Message[Out], error) {
	if err := p.checkFresh(); err != nil {
		return nil, err
	}

	fed := make(chan error, 1)
	go func() {
		for _, item := range items {
			if err := p.Submit(item); err != nil {
				fed <- err
				return
			}
		}
		fed <- p.SubmitQuit()
	}()

	out := make([]message.Message[Out], 0, len(items))
	for {
		m, err := p.TryReceiveResult()
		if err != nil {
			return out, err
		}
		if m.IsQuit() {
			break
		}
		out = append(out, m)
	}

	if err := <-fed; err != nil {
		return out, err
	}
	return out, p.Shutdown()
}
