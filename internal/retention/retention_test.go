package retention

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func snap(id string, sec int) core.SnapshotRecord {
	return core.SnapshotRecord{
		SnapshotID:  id,
		StartTime:   epoch.Add(time.Duration(sec) * time.Second),
		Description: "srv1/daily/" + id,
	}
}

func TestSelectForDeletion_OldestBeyondRetention(t *testing.T) {
	list := []core.SnapshotRecord{snap("a", 1), snap("b", 2), snap("c", 3)}
	assert.Equal(t, []string{"a", "b"}, SelectForDeletion(list, 1))
}

func TestSelectForDeletion_RetentionCoversAll(t *testing.T) {
	list := []core.SnapshotRecord{snap("a", 1), snap("b", 2), snap("c", 3)}
	assert.Empty(t, SelectForDeletion(list, 5))
	assert.Empty(t, SelectForDeletion(list, 3))
	assert.Empty(t, SelectForDeletion(nil, 0))
}

func TestSelectForDeletion_UnsortedInput(t *testing.T) {
	list := []core.SnapshotRecord{snap("c", 30), snap("a", 10), snap("d", 40), snap("b", 20)}
	assert.Equal(t, []string{"a", "b"}, SelectForDeletion(list, 2))
}

func TestSelectForDeletion_ZeroRetentionDeletesAll(t *testing.T) {
	list := []core.SnapshotRecord{snap("b", 2), snap("a", 1)}
	assert.Equal(t, []string{"a", "b"}, SelectForDeletion(list, 0))
}

func TestSelectForDeletion_NegativeRetentionTreatedAsZero(t *testing.T) {
	list := []core.SnapshotRecord{snap("a", 1)}
	assert.Equal(t, []string{"a"}, SelectForDeletion(list, -3))
}

func TestSelectForDeletion_TiesKeepListingOrder(t *testing.T) {
	list := []core.SnapshotRecord{snap("x", 5), snap("y", 5), snap("old", 1), snap("z", 5)}
	assert.Equal(t, []string{"old", "x", "y"}, SelectForDeletion(list, 1))
}

func TestSelectForDeletion_DoesNotMutateInput(t *testing.T) {
	list := []core.SnapshotRecord{snap("c", 3), snap("a", 1), snap("b", 2)}
	before := append([]core.SnapshotRecord(nil), list...)
	_ = SelectForDeletion(list, 1)
	assert.Equal(t, before, list)
}

func TestNewPlan_KeepHalf(t *testing.T) {
	list := []core.SnapshotRecord{snap("c", 3), snap("a", 1), snap("b", 2)}
	plan := NewPlan(list, 2)

	require.Len(t, plan.Keep, 2)
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, "b", plan.Keep[0].SnapshotID)
	assert.Equal(t, "c", plan.Keep[1].SnapshotID)
	assert.Equal(t, "a", plan.Delete[0].SnapshotID)
}

// Size and membership hold for random listings and retention counts.
func TestSelectForDeletion_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(20)
		keep := rng.Intn(25)

		list := make([]core.SnapshotRecord, n)
		for i := range list {
			list[i] = snap(fmt.Sprintf("snap-%02d", i), rng.Intn(1000))
		}

		got := SelectForDeletion(list, keep)

		want := n - keep
		if want < 0 {
			want = 0
		}
		require.Len(t, got, want, "n=%d keep=%d", n, keep)

		byID := make(map[string]core.SnapshotRecord, n)
		for _, s := range list {
			byID[s.SnapshotID] = s
		}
		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
			return byID[got[i]].StartTime.Before(byID[got[j]].StartTime)
		}))

		deleted := make(map[string]bool, len(got))
		for _, id := range got {
			deleted[id] = true
		}
		for _, s := range list {
			if deleted[s.SnapshotID] {
				continue
			}
			for _, id := range got {
				assert.False(t, s.StartTime.Before(byID[id].StartTime),
					"kept %s is older than deleted %s", s.SnapshotID, id)
			}
		}
	}
}
