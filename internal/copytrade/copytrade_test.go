package copytrade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

func buy(sec int64, mint string) domain.ClassifiedTrade {
	return domain.ClassifiedTrade{
		Signature: mint + "-" + time.Unix(sec, 0).UTC().Format("150405"),
		Timestamp: time.Unix(sec, 0).UTC(),
		Kind:      domain.KindBuy,
		TokenMint: mint,
		SOLAmount: 1,
	}
}

func TestForwardAndReverse(t *testing.T) {
	a := []domain.ClassifiedTrade{buy(1000, "X"), buy(5000, "Y")}
	b := []domain.ClassifiedTrade{buy(1015, "X"), buy(5020, "Y")}
	cfg := DefaultConfig()

	fwd := Detect(Forward, "A", a, map[string][]domain.ClassifiedTrade{"B": b}, cfg)
	require.Len(t, fwd, 1)
	assert.Equal(t, "B", fwd[0].Wallet)
	assert.Equal(t, 2, fwd[0].CopyCount)
	assert.Equal(t, []string{"X", "Y"}, fwd[0].Tokens)
	assert.Equal(t, 17500*time.Millisecond, fwd[0].AvgDelay)
	assert.Equal(t, "A", fwd[0].Events[0].SourceWallet)

	rev := Detect(Reverse, "B", b, map[string][]domain.ClassifiedTrade{"A": a}, cfg)
	require.Len(t, rev, 1)
	assert.Equal(t, "A", rev[0].Wallet)
	assert.Equal(t, 15*time.Second, rev[0].Events[0].TimeDelta)
	assert.Equal(t, "A", rev[0].Events[0].SourceWallet)
	assert.Equal(t, "B", rev[0].Events[0].CandidateWallet)

	// A bought before B, so A is not B's follower.
	assert.Empty(t, Detect(Forward, "B", b, map[string][]domain.ClassifiedTrade{"A": a}, cfg))
	assert.Empty(t, Detect(Reverse, "A", a, map[string][]domain.ClassifiedTrade{"B": b}, cfg))
}

func TestWindowBounds(t *testing.T) {
	target := []domain.ClassifiedTrade{buy(1000, "X"), buy(2000, "Y"), buy(3000, "Z")}
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		mode  Mode
		cand  []domain.ClassifiedTrade
		count int
	}{
		{"forward same second counts", Forward, []domain.ClassifiedTrade{buy(1000, "X"), buy(2030, "Y")}, 2},
		{"forward past window", Forward, []domain.ClassifiedTrade{buy(1031, "X"), buy(2030, "Y")}, 0},
		{"reverse same second excluded", Reverse, []domain.ClassifiedTrade{buy(1000, "X"), buy(1970, "Y")}, 0},
		{"reverse inside window", Reverse, []domain.ClassifiedTrade{buy(999, "X"), buy(1970, "Y"), buy(2990, "Z")}, 3},
		{"other token ignored", Forward, []domain.ClassifiedTrade{buy(1001, "Q"), buy(2001, "Y")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.mode, "T", target, map[string][]domain.ClassifiedTrade{"C": tt.cand}, cfg)
			if tt.count == 0 {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.count, got[0].CopyCount)
		})
	}
}

func TestSingleMatchDroppedAndSelfExcluded(t *testing.T) {
	target := []domain.ClassifiedTrade{buy(1000, "X"), buy(2000, "Y")}
	candidates := map[string][]domain.ClassifiedTrade{
		"once": {buy(1010, "X")},
		"T":    {buy(1001, "X"), buy(2001, "Y")},
	}
	assert.Empty(t, Detect(Forward, "T", target, candidates, Config{Window: 30 * time.Second, MinCount: 1}))
}

func TestSortOrder(t *testing.T) {
	target := []domain.ClassifiedTrade{buy(1000, "X"), buy(2000, "Y"), buy(3000, "Z")}
	candidates := map[string][]domain.ClassifiedTrade{
		"slow":  {buy(1020, "X"), buy(2020, "Y")},
		"fast":  {buy(1001, "X"), buy(2001, "Y")},
		"many":  {buy(1025, "X"), buy(2025, "Y"), buy(3025, "Z")},
		"fast2": {buy(1001, "X"), buy(2001, "Y")},
	}
	got := Detect(Forward, "T", target, candidates, DefaultConfig())
	require.Len(t, got, 4)
	assert.Equal(t, "many", got[0].Wallet)
	assert.Equal(t, "fast", got[1].Wallet)
	assert.Equal(t, "fast2", got[2].Wallet)
	assert.Equal(t, "slow", got[3].Wallet)
}

func TestFirstBuys(t *testing.T) {
	trades := []domain.ClassifiedTrade{
		buy(300, "C"),
		buy(100, "A"),
		{Timestamp: time.Unix(50, 0), Kind: domain.KindSell, TokenMint: "S"},
		buy(200, "A"),
		buy(250, "B"),
	}

	got := FirstBuys(trades, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].TokenMint)
	assert.Equal(t, int64(100), got[0].Timestamp.Unix())
	assert.Equal(t, "B", got[1].TokenMint)

	assert.Len(t, FirstBuys(trades, 0), 3)
}

func TestFirstBuysTieBreaksOnFeedOrder(t *testing.T) {
	at := time.Unix(500, 0)
	trades := []domain.ClassifiedTrade{
		{Timestamp: at, Kind: domain.KindBuy, TokenMint: "LATER", FeedIndex: 1},
		{Timestamp: at, Kind: domain.KindBuy, TokenMint: "EARLIER", FeedIndex: 0},
	}

	got := FirstBuys(trades, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "EARLIER", got[0].TokenMint)

	got = FirstBuys(trades, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "LATER", got[1].TokenMint)
}

func TestTimeFilter(t *testing.T) {
	ref := time.Unix(1000, 0)

	fwd := FilterFor(Forward, ref, 30*time.Second)
	from, to := fwd.Range()
	assert.Equal(t, ref, from)
	assert.Equal(t, ref.Add(30*time.Second), to)
	assert.True(t, fwd.Contains(ref))
	assert.True(t, fwd.Contains(ref.Add(30*time.Second)))
	assert.False(t, fwd.Contains(ref.Add(-time.Second)))

	rev := FilterFor(Reverse, ref, 30*time.Second)
	from, to = rev.Range()
	assert.Equal(t, ref.Add(-30*time.Second), from)
	assert.Equal(t, ref, to)
	assert.False(t, rev.Contains(ref))
	assert.True(t, rev.Contains(ref.Add(-30*time.Second)))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{FirstN: 1, MinCount: 1}.Validate())
	assert.Error(t, Config{Window: time.Second, MinCount: 1}.Validate())
}
