package game

import (
	"context"
	"errors"
)

// ErrStopped is returned by Submit and RequestObserve once Stop was called or
// Run has exited.
var ErrStopped = errors.New("game stopped")

type commandReq struct {
	Cmd  Command
	Resp chan Result
}

type observeReq struct {
	Resp chan Observation
}

// Run serializes every command and read onto one goroutine. Each command runs
// to completion before the next is taken.
func (g *Game) Run(ctx context.Context) error {
	defer g.doneOnce.Do(func() { close(g.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stop:
			return nil
		case req := <-g.inbox:
			res := g.Apply(req.Cmd)
			req.Resp <- res
		case req := <-g.obsReq:
			req.Resp <- g.Observe()
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (g *Game) Stop() { g.stopOnce.Do(func() { close(g.stop) }) }

func (g *Game) stopped() bool {
	select {
	case <-g.stop:
		return true
	case <-g.done:
		return true
	default:
		return false
	}
}

// Submit hands cmd to the Run loop and waits for its result.
func (g *Game) Submit(ctx context.Context, cmd Command) (Result, error) {
	if g.stopped() {
		return Result{}, ErrStopped
	}
	resp := make(chan Result, 1)
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-g.stop:
		return Result{}, ErrStopped
	case <-g.done:
		return Result{}, ErrStopped
	case g.inbox <- commandReq{Cmd: cmd, Resp: resp}:
	}
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-resp:
		return res, nil
	case <-g.done:
		// Run may have answered just before it returned.
		select {
		case res := <-resp:
			return res, nil
		default:
			return Result{}, ErrStopped
		}
	}
}

// RequestObserve asks the Run loop for an Observation.
func (g *Game) RequestObserve(ctx context.Context) (Observation, error) {
	if g.stopped() {
		return Observation{}, ErrStopped
	}
	resp := make(chan Observation, 1)
	select {
	case <-ctx.Done():
		return Observation{}, ctx.Err()
	case <-g.stop:
		return Observation{}, ErrStopped
	case <-g.done:
		return Observation{}, ErrStopped
	case g.obsReq <- observeReq{Resp: resp}:
	}
	select {
	case <-ctx.Done():
		return Observation{}, ctx.Err()
	case o := <-resp:
		return o, nil
	case <-g.done:
		select {
		case o := <-resp:
			return o, nil
		default:
			return Observation{}, ErrStopped
		}
	}
}
