package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHouse struct {
	mu            sync.Mutex
	startErr      error
	linger        time.Duration
	loopsFinished bool
	stoppedAfter  bool
	stopped       bool
}

func (f *fakeHouse) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	time.Sleep(f.linger)
	f.mu.Lock()
	f.loopsFinished = true
	f.mu.Unlock()
	return nil
}

func (f *fakeHouse) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.stoppedAfter = f.loopsFinished
	return nil
}

type fakeServer struct {
	closed   chan struct{}
	listenFn func() error
	once     sync.Once
}

func newFakeServer() *fakeServer {
	return &fakeServer{closed: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenFn != nil {
		return f.listenFn()
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func TestRun_StopsAfterLoopsReturn(t *testing.T) {
	house := &fakeHouse{linger: 50 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, run(ctx, house, newFakeServer(), zap.NewNop()))
	assert.True(t, house.stopped)
	assert.True(t, house.stoppedAfter, "Stop ran while loops were still running")
}

func TestRun_ServerError(t *testing.T) {
	house := &fakeHouse{}
	srv := newFakeServer()
	srv.listenFn = func() error { return errors.New("address in use") }

	err := run(context.Background(), house, srv, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
	assert.True(t, house.stoppedAfter)
}

func TestRun_HouseStartFails(t *testing.T) {
	house := &fakeHouse{startErr: errors.New("subscribe failed")}

	err := run(context.Background(), house, newFakeServer(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe failed")
	assert.True(t, house.stopped)
}
