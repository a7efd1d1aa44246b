package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// package-level daemons of Badger's dependencies
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type fakeNotifier struct {
	mu      sync.Mutex
	got     []string
	offline map[string]bool
}

func (f *fakeNotifier) Notify(owner string, n *domain.CraftingNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline[owner] {
		return errors.New("no connections")
	}
	f.got = append(f.got, owner+":"+n.ItemName)
	return nil
}

func (f *fakeNotifier) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.got...)
}

func openRepo(t *testing.T) *local.Store {
	t.Helper()
	store, err := local.Open("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func timer(name string, end time.Time) *domain.CraftingNotification {
	return &domain.CraftingNotification{
		ItemName:  name,
		Category:  "mod",
		StartTime: end.Add(-time.Hour),
		EndTime:   end,
		Quantity:  1,
	}
}

func TestPoll_DeliversDueTimersOnce(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t).Notifications()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(ctx, "alice", timer("done", now.Add(-time.Second))))
	require.NoError(t, repo.Add(ctx, "alice", timer("exactly now", now)))
	require.NoError(t, repo.Add(ctx, "alice", timer("later", now.Add(time.Minute))))
	require.NoError(t, repo.Add(ctx, "bob", timer("bob done", now.Add(-time.Minute))))

	n := &fakeNotifier{}
	s := NewScheduler(repo, n, time.Second, zap.NewNop())
	s.now = func() time.Time { return now }

	count, err := s.poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.ElementsMatch(t, []string{"alice:done", "alice:exactly now", "bob:bob done"}, n.delivered())

	count, err = s.poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "notified timers must not fire again")

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	for _, item := range list {
		assert.Equal(t, item.ItemName != "later", item.Notified, item.ItemName)
	}
}

func TestPoll_FailedDeliveryStaysPending(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t).Notifications()
	now := time.Now()
	require.NoError(t, repo.Add(ctx, "carol", timer("gear", now.Add(-time.Second))))

	n := &fakeNotifier{offline: map[string]bool{"carol": true}}
	s := NewScheduler(repo, n, time.Second, zap.NewNop())

	count, err := s.poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	n.mu.Lock()
	n.offline = nil
	n.mu.Unlock()

	count, err = s.poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScheduler_StartStop(t *testing.T) {
	repo := openRepo(t).Notifications()
	require.NoError(t, repo.Add(context.Background(), "alice", timer("done", time.Now().Add(-time.Second))))

	n := &fakeNotifier{}
	s := NewScheduler(repo, n, 10*time.Millisecond, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return len(n.delivered()) == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	// Restartable after Stop
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestScheduler_RunEndsWithContext(t *testing.T) {
	repo := openRepo(t).Notifications()
	s := NewScheduler(repo, &fakeNotifier{}, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
