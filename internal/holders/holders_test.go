package holders

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

func TestCompute(t *testing.T) {
	holders := []domain.HolderRecord{
		{Owner: "b", Amount: 100},
		{Owner: "a", Amount: 500},
		{Owner: "c", Amount: 400},
	}

	d := Compute(holders, 1000)
	assert.Equal(t, 3, d.Holders)
	assert.InDelta(t, 50, d.Top1.Value, 1e-9)
	assert.InDelta(t, 100, d.Top10.Value, 1e-9)
	assert.InDelta(t, 100, d.Top20.Value, 1e-9)
	assert.InDelta(t, 2500+1600+100, d.HHI.Value, 1e-9)
	require.True(t, d.Gini.OK)
	// ascending 100, 400, 500: 2*(100+800+1500)/(3*1000) - 4/3
	assert.InDelta(t, 0.2666666667, d.Gini.Value, 1e-9)
}

func TestComputeZeroSupply(t *testing.T) {
	d := Compute([]domain.HolderRecord{{Owner: "a", Amount: 1}}, 0)
	assert.False(t, d.Top1.OK)
	assert.False(t, d.HHI.OK)
	assert.True(t, d.Gini.OK)
	assert.InDelta(t, 0, d.Gini.Value, 1e-12)

	d = Compute(nil, 1000)
	assert.Zero(t, d.Holders)
	assert.InDelta(t, 0, d.Top10.Value, 1e-12)
	assert.False(t, d.Gini.OK)
}

func TestTopSharesCap(t *testing.T) {
	var hs []domain.HolderRecord
	for i := 0; i < 30; i++ {
		hs = append(hs, domain.HolderRecord{Owner: fmt.Sprintf("w%02d", i), Amount: 10})
	}
	d := Compute(hs, 300)
	assert.InDelta(t, 100.0/30, d.Top1.Value, 1e-9)
	assert.InDelta(t, 100.0/3, d.Top10.Value, 1e-9)
	assert.InDelta(t, 200.0/3, d.Top20.Value, 1e-9)
	assert.InDelta(t, 0, d.Gini.Value, 1e-9, "equal holdings")
}

func TestRanked(t *testing.T) {
	in := []domain.HolderRecord{
		{Owner: "z", Amount: 5},
		{Owner: "b", Amount: 9},
		{Owner: "a", Amount: 5},
	}
	out := Ranked(in)
	assert.Equal(t, "b", out[0].Owner)
	assert.Equal(t, "a", out[1].Owner)
	assert.Equal(t, "z", out[2].Owner)
	assert.Equal(t, 3, out[2].Rank)
	assert.Zero(t, in[0].Rank, "input untouched")
}
