package auth

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// sharedCalls deduplicates concurrent calls per key. The shared work runs
// under a context detached from any single caller and is cancelled only
// once every caller waiting on it has gone away. Each caller still returns
// as soon as its own context is done.
type sharedCalls struct {
	group singleflight.Group

	mu    sync.Mutex
	calls map[string]*sharedCall
}

type sharedCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (s *sharedCalls) do(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := s.join(ctx, key)
	defer s.leave(key, call)

	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(call.ctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *sharedCalls) join(ctx context.Context, key string) *sharedCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls == nil {
		s.calls = make(map[string]*sharedCall)
	}
	call, ok := s.calls[key]
	if !ok {
		callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &sharedCall{ctx: callCtx, cancel: cancel}
		s.calls[key] = call
	}
	call.waiters++
	return call
}

func (s *sharedCalls) leave(key string, call *sharedCall) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if s.calls[key] == call {
		delete(s.calls, key)
	}
	// A cancelled flight may still be unwinding. Later callers start a new
	// one instead of inheriting its cancellation.
	s.group.Forget(key)
}

func (s *sharedCalls) waiting(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if call, ok := s.calls[key]; ok {
		return call.waiters
	}
	return 0
}
