package filter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestStoreDispatchInOrder(t *testing.T) {
	store := NewStore(NewState(fixedNow), WithClock(func() time.Time { return fixedNow }))

	got := store.Dispatch(
		TogglePartitions{IDs: []string{"p1"}},
		SetCurrentPage{Page: 3},
		SetPrevMonth{},
	)

	assert.Equal(t, []string{"p1"}, got.PartitionIDs.Sorted())
	assert.Equal(t, 1, got.CurrentPage, "month change after page set resets the page")
	assert.Equal(t, "2024-04-01", got.TSSDate.String())
	assert.Equal(t, uint64(3), store.Version())
}

func TestStoreStateIsACopy(t *testing.T) {
	store := NewStore(NewState(fixedNow))
	s := store.State()
	s.PartitionIDs["leak"] = struct{}{}
	*s.TSSDate = core.NewDate(1990, 1, 1)

	fresh := store.State()
	assert.False(t, fresh.PartitionIDs.Has("leak"))
	assert.Equal(t, "2024-05-01", fresh.TSSDate.String())
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore(NewState(fixedNow))

	var seen []int
	cancel := store.Subscribe(func(s State) {
		seen = append(seen, s.NPerPage)
	})

	store.Dispatch(SetNPerPage{N: 10})
	store.Dispatch(SetNPerPage{N: 20}, SetNPerPage{N: 30})
	cancel()
	cancel()
	store.Dispatch(SetNPerPage{N: 40})

	assert.Equal(t, []int{10, 30}, seen)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	store := NewStore(NewState(fixedNow))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(TogglePartitions{IDs: []string{"p"}})
			_ = store.State()
		}()
	}
	wg.Wait()

	s, v := store.Snapshot()
	require.Equal(t, uint64(50), v)
	// An even number of flips leaves the partition unselected.
	assert.False(t, s.PartitionIDs.Has("p"))
}

func TestFindTransactionsRequest(t *testing.T) {
	s := NewState(fixedNow)
	s.PartitionIDs = NewIDSet("p2", "p1")
	s.CurrentPage = 2
	s.NPerPage = 10

	req := FindTransactionsRequest(s, core.User{ID: "u1", DBName: "main"})

	assert.Equal(t, []string{"p1", "p2"}, req.PartitionIDs)
	assert.NotNil(t, req.CategoryIDs)
	assert.Empty(t, req.CategoryIDs)
	assert.Equal(t, "u1", req.OwnerID)
	assert.Equal(t, "main", req.DBName)
	assert.Equal(t, "2024-05-01", req.TSSDate.String())
	assert.Equal(t, "2024-05-31", req.TSEDate.String())
	assert.Equal(t, 2, req.CurrentPage)
	assert.Equal(t, 10, req.NPerPage)

	// The request does not alias the state.
	*req.TSSDate = core.NewDate(2000, 1, 1)
	assert.Equal(t, "2024-05-01", s.TSSDate.String())
}
