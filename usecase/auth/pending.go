package auth

import (
	"context"

	"github.com/fastygo/tasker/domain"
)

// Pending tracks an in-flight sign-in. The outcome is also visible through
// Manager.State once Done is closed.
type Pending struct {
	done    chan struct{}
	session domain.Session
	err     error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) complete(session domain.Session, err error) {
	p.session = session
	p.err = err
	close(p.done)
}

// Done is closed when the operation has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation settles or ctx ends. The returned error is
// the cause of a failed sign-in; the session carries the user-facing message.
func (p *Pending) Wait(ctx context.Context) (domain.Session, error) {
	select {
	case <-p.done:
		return p.session, p.err
	case <-ctx.Done():
		return domain.Session{}, ctx.Err()
	}
}
