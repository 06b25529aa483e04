package watch

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidityDepth/internal/model"
)

const (
	testPool = "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"
	testBase = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

type estimateFunc func(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error)

func (f estimateFunc) Estimate(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
	return f(ctx, req)
}

type memSink struct {
	mu      sync.Mutex
	records []Snapshot
}

func (s *memSink) Put(records ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records = append(s.records, rec.(Snapshot))
	}
	return nil
}

func (s *memSink) all() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.records...)
}

func testRequest(r float64) model.PriceRangeRequest {
	return model.PriceRangeRequest{Pool: testPool, BaseToken: testBase, RangePercent: r}
}

func TestRunnerDropsSupersededResult(t *testing.T) {
	gate := make(chan struct{})
	var calls atomic.Int32
	est := estimateFunc(func(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
		n := calls.Add(1)
		if n == 1 {
			<-gate
		}
		return model.LiquidityResult{Request: req, Status: model.StatusOK, TicksCrossed: int(n)}, nil
	})
	sink := &memSink{}
	r := NewRunner(Config{Interval: time.Second}, est, sink, testRequest(5), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.refresh(context.Background())
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	r.refresh(context.Background())
	close(gate)
	<-done

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Result.TicksCrossed)
	assert.Equal(t, uint64(2), got[0].Seq)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), latest.Seq)
}

func TestRunnerDropsResultForReplacedRequest(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	est := estimateFunc(func(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
		close(started)
		<-gate
		return model.LiquidityResult{Request: req, Status: model.StatusOK}, nil
	})
	sink := &memSink{}
	r := NewRunner(Config{Interval: time.Second}, est, sink, testRequest(5), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.refresh(context.Background())
	}()
	<-started

	require.NoError(t, r.SetRequest(testRequest(10)))
	close(gate)
	<-done

	assert.Empty(t, sink.all())
}

func TestRunnerSetRequestValidates(t *testing.T) {
	r := NewRunner(Config{Interval: time.Second}, nil, &memSink{}, testRequest(5), nil)
	err := r.SetRequest(model.PriceRangeRequest{Pool: "nope", BaseToken: testBase, RangePercent: 5})
	require.ErrorIs(t, err, model.ErrInvalidAddress)
	assert.Equal(t, testRequest(5).Key(), r.Request())
}

func TestRunnerMaxRunsAndState(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state", "watch.json")
	est := estimateFunc(func(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
		return model.LiquidityResult{
			Request: req,
			Status:  model.StatusPartial,
			Failures: []model.SourceError{{Source: "price", Target: req.BaseToken, Err: model.ErrPriceUnavailable}},
		}, nil
	})
	sink := &memSink{}
	r := NewRunner(Config{Interval: 5 * time.Millisecond, Timeout: time.Second, MaxRuns: 3, StatePath: statePath}, est, sink, testRequest(5), nil)

	require.NoError(t, r.Run(context.Background()))

	got := sink.all()
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Seq, got[i-1].Seq)
	}

	snap, ok, err := NewStateStore(statePath).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got[len(got)-1].Seq, snap.Seq)
	assert.Equal(t, model.StatusPartial, snap.Result.Status)
	require.Len(t, snap.Result.Failures, 1)
	assert.Equal(t, "price", snap.Result.Failures[0].Source)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	est := estimateFunc(func(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
		return model.LiquidityResult{Request: req, Status: model.StatusOK}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(Config{Interval: time.Hour}, est, &memSink{}, testRequest(5), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()
	require.Eventually(t, func() bool { _, ok := r.Latest(); return ok }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("runner did not stop")
	}
}

func TestRunnerRejectsBadConfig(t *testing.T) {
	r := NewRunner(Config{}, estimateFunc(nil), &memSink{}, testRequest(5), nil)
	require.Error(t, r.Run(context.Background()))

	r = NewRunner(Config{Interval: time.Second}, estimateFunc(nil), &memSink{}, testRequest(150), nil)
	require.ErrorIs(t, r.Run(context.Background()), model.ErrInvalidRange)
}

func TestStateStoreDisabled(t *testing.T) {
	s := NewStateStore("")
	require.NoError(t, s.Save(Snapshot{Seq: 1}))
	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunnerTicketOpenedBeforeSetRequestCannotCommit(t *testing.T) {
	r := NewRunner(Config{Interval: time.Second}, nil, &memSink{}, testRequest(5), nil)

	stale := r.begin()
	require.NoError(t, r.SetRequest(testRequest(10)))
	fresh := r.begin()

	assert.Equal(t, 5.0, stale.Params.RangePercent)
	assert.Equal(t, 10.0, fresh.Params.RangePercent)
	assert.False(t, r.tracker.Commit(stale, Snapshot{Seq: stale.Seq}))
	assert.True(t, r.tracker.Commit(fresh, Snapshot{Seq: fresh.Seq}))
}

func TestRunnerTicketAlwaysMatchesCurrentRequest(t *testing.T) {
	r := NewRunner(Config{Interval: time.Second}, nil, &memSink{}, testRequest(5), nil)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.SetRequest(testRequest(float64(i%50))))
		}(i)
		go func() {
			defer wg.Done()
			r.begin()
		}()
	}
	wg.Wait()

	// Whatever interleaving ran, the tracker must now hold the runner's request.
	last := r.begin()
	assert.Equal(t, r.Request(), last.Params)
	assert.True(t, r.tracker.Commit(last, Snapshot{Seq: last.Seq}))

	current := r.Request()
	ticket := r.begin()
	require.NoError(t, r.SetRequest(testRequest(current.RangePercent+1)))
	assert.False(t, r.tracker.Commit(ticket, Snapshot{Seq: ticket.Seq}))
}
