package lottery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntropy_SeedIsDeterministic(t *testing.T) {
	players := []string{"alice", "bob", "carol"}
	e := testEntropy(42)
	require.Equal(t, e.Seed(players), e.Seed(players))

	i1, err := e.WinnerIndex(players)
	require.NoError(t, err)
	i2, err := e.WinnerIndex(players)
	require.NoError(t, err)
	require.Equal(t, i1, i2)
}

func TestEntropy_SeedDependsOnEveryInput(t *testing.T) {
	players := []string{"alice", "bob"}
	base := testEntropy(1)
	seed := base.Seed(players)

	variants := map[string]Entropy{
		"height":   {Height: 2, Time: base.Time, BlockHash: base.BlockHash, Proposer: base.Proposer},
		"time":     {Height: 1, Time: base.Time.Add(time.Nanosecond), BlockHash: base.BlockHash, Proposer: base.Proposer},
		"hash":     {Height: 1, Time: base.Time, BlockHash: []byte("other"), Proposer: base.Proposer},
		"proposer": {Height: 1, Time: base.Time, BlockHash: base.BlockHash, Proposer: []byte("other")},
	}
	for name, v := range variants {
		require.NotEqual(t, seed, v.Seed(players), name)
	}
	require.NotEqual(t, seed, base.Seed([]string{"bob", "alice"}), "player order")
}

func TestEntropy_LengthPrefixAvoidsAmbiguity(t *testing.T) {
	e := testEntropy(1)
	require.NotEqual(t, e.Seed([]string{"ab", "c"}), e.Seed([]string{"a", "bc"}))
}

func TestEntropy_WinnerIndexInRange(t *testing.T) {
	players := []string{"a", "b", "c", "d", "e", "f", "g"}
	hits := make([]int, len(players))
	for h := int64(1); h <= 200; h++ {
		idx, err := testEntropy(h).WinnerIndex(players)
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(players))
		hits[idx]++
	}
	// 200 draws over 7 slots: every slot should be hit at least once.
	for i, n := range hits {
		require.Positive(t, n, "slot %d never selected", i)
	}
}

func TestEntropy_WinnerIndexEmpty(t *testing.T) {
	_, err := testEntropy(1).WinnerIndex(nil)
	require.Error(t, err)
}
