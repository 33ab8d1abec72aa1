package cart

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	pkgredis "github.com/angelmondragon/warung-pos/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nasiGoreng = Product{ID: "p1", Name: "Nasi Goreng", Price: "15.000", Category: "Makanan"}
	esTeh      = Product{ID: "p2", Name: "Es Teh", Price: 5000, Category: "Minuman"}
)

func TestAddIncrementsAndRefreshesPrice(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)

	store.Add(ctx, nasiGoreng)
	store.Add(ctx, esTeh)
	repriced := nasiGoreng
	repriced.Price = "16.000"
	line := store.Add(ctx, repriced)

	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(16000), line.UnitPrice)

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID, "insertion order is kept")
	assert.Equal(t, 3, store.TotalItemCount())
	assert.Equal(t, int64(2*16000+5000), store.TotalAmount())
}

func TestDecreaseRemovesAtOne(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)
	store.Add(ctx, esTeh)
	store.Add(ctx, esTeh)

	store.Decrease(ctx, "p2")
	require.Len(t, store.Items(), 1)
	assert.Equal(t, 1, store.Items()[0].Quantity)

	store.Decrease(ctx, "p2")
	assert.Empty(t, store.Items())

	store.Decrease(ctx, "missing")
	assert.Zero(t, store.TotalItemCount())
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)
	store.Add(ctx, nasiGoreng)
	store.Add(ctx, nasiGoreng)
	store.Add(ctx, esTeh)

	store.Remove(ctx, "p1")
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	store.Clear(ctx)
	assert.Empty(t, store.Items())
	assert.Zero(t, store.TotalAmount())
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)
	store.Add(ctx, esTeh)

	snap := store.Snapshot()
	snap[0].Quantity = 99
	assert.Equal(t, 1, store.Items()[0].Quantity)
}

func TestUnparseablePriceBecomesZero(t *testing.T) {
	store := NewStore(nil, nil)
	line := store.Add(context.Background(), Product{ID: "x", Name: "Misteri", Price: "gratis"})
	assert.Zero(t, line.UnitPrice)
	assert.Zero(t, store.TotalAmount())
}

func TestConcurrentAddsAreAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Add(ctx, esTeh)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.TotalItemCount())
}

func TestPersistAndRestoreMemory(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewStore(storage, nil)
	store.Add(ctx, nasiGoreng)
	store.Add(ctx, esTeh)
	store.Add(ctx, esTeh)

	restored := NewStore(storage, nil)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, store.Items(), restored.Items())
}

func TestLoadEmptySlot(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	require.NoError(t, store.Load(context.Background()))
	assert.Empty(t, store.Items())
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, []byte(`{"version":2,"items":[{"product_id":"p1","quantity":1}]}`)))

	store := NewStore(storage, nil)
	err := store.Load(ctx)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Empty(t, store.Items())
}

func TestLoadRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, []byte(`not json`)))

	store := NewStore(storage, nil)
	require.Error(t, store.Load(ctx))
	assert.Empty(t, store.Items())
}

type failingStorage struct{}

func (failingStorage) Load(context.Context) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStorage) Save(context.Context, []byte) error   { return errors.New("disk gone") }

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	store := NewStore(failingStorage{}, logg)

	store.Add(context.Background(), esTeh)

	assert.Equal(t, 1, store.TotalItemCount())
	assert.Contains(t, buf.String(), "cart persistence failed")
	assert.Error(t, store.Save(context.Background()))
}

func TestRedisStorageRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	kv := pkgredis.NewFromRaw(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	ctx := context.Background()

	storage := NewRedisStorage(kv, "kasir-1")
	assert.Equal(t, "warung:cart:kasir-1", storage.Key())

	_, err := storage.Load(ctx)
	require.ErrorIs(t, err, ErrSlotEmpty)

	store := NewStore(storage, nil)
	store.Add(ctx, nasiGoreng)

	raw, err := srv.Get("warung:cart:kasir-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[{"product_id":"p1","name":"Nasi Goreng","unit_price":15000,"quantity":1,"category":"Makanan"}]}`, raw)
	assert.Zero(t, srv.TTL("warung:cart:kasir-1"))

	restored := NewStore(NewRedisStorage(kv, "kasir-1"), nil)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, store.Items(), restored.Items())
}

func TestRegistryScopesSessions(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(func(string) Storage { return NewMemoryStorage() }, nil)

	a := registry.Get(ctx, "user-a")
	b := registry.Get(ctx, "user-b")
	a.Add(ctx, esTeh)

	assert.Same(t, a, registry.Get(ctx, "user-a"))
	assert.Empty(t, b.Items())
	assert.Same(t, registry.Get(ctx, ""), registry.Get(ctx, GuestSession))
}

func TestRegistryReloadsFromRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	kv := pkgredis.NewFromRaw(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	ctx := context.Background()

	registry := NewRedisRegistry(kv, nil)
	registry.Get(ctx, "kasir").Add(ctx, esTeh)
	registry.Forget("kasir")

	assert.Equal(t, 1, registry.Get(ctx, "kasir").TotalItemCount())
}

func TestCommitClearsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage(), nil)
	store.Add(ctx, nasiGoreng)

	err := store.Commit(ctx, func(items []LineItem) error {
		require.Len(t, items, 1)
		return errors.New("insert failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, store.TotalItemCount())

	var seen []LineItem
	require.NoError(t, store.Commit(ctx, func(items []LineItem) error {
		seen = items
		return nil
	}))
	assert.Len(t, seen, 1)
	assert.Empty(t, store.Items())
}

type gatedStorage struct {
	*MemoryStorage
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Load(ctx context.Context) ([]byte, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.MemoryStorage.Load(ctx)
}

func TestRegistrySlowLoadDoesNotBlockOtherSessions(t *testing.T) {
	gate := &gatedStorage{MemoryStorage: NewMemoryStorage(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	registry := NewRegistry(func(id string) Storage {
		if id == "slow" {
			return gate
		}
		return NewMemoryStorage()
	}, nil)
	ctx := context.Background()

	done := make(chan *Store)
	go func() { done <- registry.Get(ctx, "slow") }()
	<-gate.entered

	fast := registry.Get(ctx, "kasir-2")
	fast.Add(ctx, esTeh)
	assert.Equal(t, 1, registry.Get(ctx, "kasir-2").TotalItemCount())

	close(gate.release)
	slow := <-done
	assert.Same(t, slow, registry.Get(ctx, "slow"))
}

func TestRegistryConcurrentFirstAccessSharesOneStore(t *testing.T) {
	registry := NewRegistry(func(string) Storage { return NewMemoryStorage() }, nil)
	ctx := context.Background()

	const callers = 8
	got := make([]*Store, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = registry.Get(ctx, "kasir-1")
		}(i)
	}
	wg.Wait()
	for _, st := range got[1:] {
		assert.Same(t, got[0], st)
	}
}

func TestTotalsAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)
	kopi := Product{ID: "p3", Name: "Kopi", Price: 3000}

	steps := []struct {
		name   string
		apply  func()
		count  int
		amount int64
	}{
		{"add nasi", func() { store.Add(ctx, nasiGoreng) }, 1, 15000},
		{"add es teh", func() { store.Add(ctx, esTeh) }, 2, 20000},
		{"add nasi again", func() { store.Add(ctx, nasiGoreng) }, 3, 35000},
		{"add kopi", func() { store.Add(ctx, kopi) }, 4, 38000},
		{"decrease nasi", func() { store.Decrease(ctx, "p1") }, 3, 23000},
		{"decrease es teh to zero", func() { store.Decrease(ctx, "p2") }, 2, 18000},
		{"decrease unknown", func() { store.Decrease(ctx, "p9") }, 2, 18000},
		{"add kopi again", func() { store.Add(ctx, kopi) }, 3, 21000},
		{"remove nasi", func() { store.Remove(ctx, "p1") }, 2, 6000},
		{"remove unknown", func() { store.Remove(ctx, "p9") }, 2, 6000},
		{"decrease kopi", func() { store.Decrease(ctx, "p3") }, 1, 3000},
		{"remove kopi", func() { store.Remove(ctx, "p3") }, 0, 0},
	}
	for _, step := range steps {
		step.apply()
		assert.Equal(t, step.count, store.TotalItemCount(), step.name)
		assert.Equal(t, step.amount, store.TotalAmount(), step.name)

		var count int
		var amount int64
		for _, it := range store.Items() {
			assert.Positive(t, it.Quantity, step.name)
			count += it.Quantity
			amount += it.LineTotal()
		}
		assert.Equal(t, count, store.TotalItemCount(), step.name)
		assert.Equal(t, amount, store.TotalAmount(), step.name)
	}
}
