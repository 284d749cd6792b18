package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cachedProfile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestService(clock Clock) *Service {
	return New(NewMemoryStore(), clock, Options{
		StaleTime: 5 * time.Minute,
		Retry:     RetryPolicy{Attempts: 1},
	})
}

func TestKeyJoinsParts(t *testing.T) {
	require.Equal(t, "users_7_broadcaster", Key("users_", 7, "broadcaster"))
	require.Equal(t, "stats_admin", Key("stats", "admin"))
	require.Equal(t, "available_campaigns_", Key("available_campaigns_"))
}

func TestFetchCachesUntilTTL(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := newTestService(clock)

	var calls int32
	loader := func(context.Context) (cachedProfile, error) {
		n := atomic.AddInt32(&calls, 1)
		return cachedProfile{ID: 1, Name: "load-" + string(rune('0'+n))}, nil
	}

	first, err := Fetch(ctx, svc, "users_1", time.Minute, loader)
	require.NoError(t, err)
	require.Equal(t, "load-1", first.Name)

	clock.Advance(59 * time.Second)
	second, err := Fetch(ctx, svc, "users_1", time.Minute, loader)
	require.NoError(t, err)
	require.Equal(t, "load-1", second.Name)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Advance(time.Second)
	third, err := Fetch(ctx, svc, "users_1", time.Minute, loader)
	require.NoError(t, err)
	require.Equal(t, "load-2", third.Name)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestInvalidatePrefixForcesRefetch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewManualClock(time.Now()))

	require.NoError(t, svc.Set(ctx, "users_1", cachedProfile{ID: 1, Name: "old"}, 0))
	require.NoError(t, svc.Set(ctx, "users_2", cachedProfile{ID: 2, Name: "old"}, 0))
	require.NoError(t, svc.Set(ctx, "stats_admin", map[string]int{"total": 3}, 0))

	require.NoError(t, svc.InvalidatePrefix(ctx, "users_"))

	var got cachedProfile
	hit, err := svc.Get(ctx, "users_1", &got)
	require.NoError(t, err)
	require.False(t, hit)

	var stats map[string]int
	hit, err = svc.Get(ctx, "stats_admin", &stats)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 3, stats["total"])

	fresh, err := Fetch(ctx, svc, "users_1", 0, func(context.Context) (cachedProfile, error) {
		return cachedProfile{ID: 1, Name: "new"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "new", fresh.Name)
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	require.NoError(t, svc.Set(ctx, "campaigns_1", 1, 0))
	require.NoError(t, svc.Clear(ctx))

	var v int
	hit, err := svc.Get(ctx, "campaigns_1", &v)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestFetchCoalescesConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]int, workers)
	started := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			v, err := Fetch(ctx, svc, "stats_admin", time.Minute, loader)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	for i := 0; i < workers; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		require.Equal(t, 42, v)
	}
	require.LessOrEqual(t, atomic.LoadInt32(&calls), int32(workers))
	var cached int
	hit, err := svc.Get(ctx, "stats_admin", &cached)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 42, cached)
}

func TestFetchDoesNotStoreSupersededResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	value, err := Fetch(ctx, svc, "users_9", time.Minute, func(ctx context.Context) (string, error) {
		require.NoError(t, svc.InvalidatePrefix(ctx, "users_"))
		return "stale", nil
	})
	require.NoError(t, err)
	require.Equal(t, "stale", value)

	var got string
	hit, err := svc.Get(ctx, "users_9", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestFetchReturnsLoaderError(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	boom := errors.New("db down")

	_, err := Fetch(ctx, svc, "proofs_1", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	var v int
	hit, _ := svc.Get(ctx, "proofs_1", &v)
	require.False(t, hit)
}

func TestPruneExpiredDropsOnlyExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := NewMemoryStore()
	svc := New(store, clock, Options{Retry: RetryPolicy{Attempts: 1}})

	require.NoError(t, svc.Set(ctx, "campaigns_1", 1, time.Minute))
	require.NoError(t, svc.Set(ctx, "campaigns_2", 2, time.Hour))
	require.Equal(t, 0, svc.PruneExpired())

	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, svc.PruneExpired())

	entry, err := store.Get(ctx, "campaigns_1")
	require.NoError(t, err)
	require.Nil(t, entry)
	entry, err = store.Get(ctx, "campaigns_2")
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestPruneExpiredSkipsNonMemoryStore(t *testing.T) {
	svc := New(nopStore{}, nil, Options{})
	require.Equal(t, 0, svc.PruneExpired())
	var nilSvc *Service
	require.Equal(t, 0, nilSvc.PruneExpired())
}

type nopStore struct{}

func (nopStore) Get(context.Context, string) (*Entry, error)             { return nil, nil }
func (nopStore) Set(context.Context, string, Entry, time.Duration) error { return nil }
func (nopStore) Delete(context.Context, string) error                    { return nil }
func (nopStore) DeletePrefix(context.Context, string) (int64, error)     { return 0, nil }
func (nopStore) Clear(context.Context) error                             { return nil }
