// internal/solscan/activity.go
package solscan

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

var swapActivityTypes = []string{"ACTIVITY_TOKEN_SWAP", "ACTIVITY_AGG_TOKEN_SWAP"}

// TimeRange bounds an activity query. Zero ends are open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

type activityRecord struct {
	BlockID      uint64      `json:"block_id"`
	TransID      string      `json:"trans_id"`
	BlockTime    int64       `json:"block_time"`
	ActivityType string      `json:"activity_type"`
	FromAddress  string      `json:"from_address"`
	Platform     flexStrings `json:"platform"`
	AmountInfo   struct {
		Token1         string  `json:"token1"`
		Token1Decimals int     `json:"token1_decimals"`
		Amount1        float64 `json:"amount1"`
		Token2         string  `json:"token2"`
		Token2Decimals int     `json:"token2_decimals"`
		Amount2        float64 `json:"amount2"`
	} `json:"amount_info"`
}

// flexStrings accepts either a string or an array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != "" {
			*f = flexStrings{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*f = many
	return nil
}

func (r activityRecord) swap() domain.Swap {
	s := domain.Swap{
		Signature:      r.TransID,
		BlockTime:      time.Unix(r.BlockTime, 0).UTC(),
		Slot:           r.BlockID,
		From:           r.FromAddress,
		Token1:         r.AmountInfo.Token1,
		Token2:         r.AmountInfo.Token2,
		Token1Decimals: r.AmountInfo.Token1Decimals,
		Token2Decimals: r.AmountInfo.Token2Decimals,
		Amount1:        r.AmountInfo.Amount1,
		Amount2:        r.AmountInfo.Amount2,
	}
	if len(r.Platform) > 0 {
		s.Platform = r.Platform[0]
	}
	return s
}

// DexActivity returns one page of swap activity, most recent first.
func (c *Client) DexActivity(ctx context.Context, address string, page, pageSize int, tr TimeRange) ([]domain.Swap, error) {
	q := pageQuery(address, page, pageSize)
	q["activity_type[]"] = swapActivityTypes
	if !tr.From.IsZero() {
		q.Set("from_time", strconv.FormatInt(tr.From.Unix(), 10))
	}
	if !tr.To.IsZero() {
		q.Set("to_time", strconv.FormatInt(tr.To.Unix(), 10))
	}

	env, err := c.get(ctx, "dex_activity", address, "account/activity/dextrading", q)
	if err != nil {
		return nil, err
	}

	var records []activityRecord
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, domain.NewRetrievalError("dex_activity", address, 0, err)
		}
	}

	swaps := make([]domain.Swap, 0, len(records))
	for _, r := range records {
		if r.TransID == "" {
			c.logger.Warn("Skipping activity without signature", zap.String("address", address))
			continue
		}
		swaps = append(swaps, r.swap())
	}
	return swaps, nil
}

// DexActivityTotal returns how many swap records the indexer holds for address.
func (c *Client) DexActivityTotal(ctx context.Context, address string) (int, error) {
	env, err := c.get(ctx, "dex_activity_total", address, "account/activity/dextrading/total",
		pageQuery(address, 0, 0))
	if err != nil {
		return 0, err
	}
	var total int
	if err := json.Unmarshal(env.Data, &total); err != nil {
		return 0, domain.NewRetrievalError("dex_activity_total", address, 0, err)
	}
	return total, nil
}

// FetchOptions controls a paged history fetch.
type FetchOptions struct {
	// Now anchors the horizon; zero means time.Now.
	Now     time.Time
	Horizon time.Duration
	// Known signatures end the fetch: everything older is already cached.
	Known map[string]struct{}
	// Max caps the number of records; zero means no cap.
	Max   int
	Range TimeRange
}

// FetchSwaps pages through swap activity, most recent first, until a short
// page, the page limit, the horizon, a known signature or Max is reached.
func (c *Client) FetchSwaps(ctx context.Context, address string, opts FetchOptions) ([]domain.Swap, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	horizon := opts.Horizon
	if horizon <= 0 {
		horizon = c.cfg.Horizon()
	}
	cutoff := now.Add(-horizon)

	var out []domain.Swap
	for page := 1; page <= c.cfg.MaxPages; page++ {
		swaps, err := c.DexActivity(ctx, address, page, c.cfg.PageSize, opts.Range)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("Fetched activity page",
			zap.String("address", address),
			zap.Int("page", page),
			zap.Int("records", len(swaps)))

		for _, s := range swaps {
			if _, ok := opts.Known[s.Signature]; ok {
				return out, nil
			}
			if s.BlockTime.Before(cutoff) {
				return out, nil
			}
			out = append(out, s)
			if opts.Max > 0 && len(out) >= opts.Max {
				return out, nil
			}
		}

		if len(swaps) < c.cfg.PageSize {
			break
		}
	}
	return out, nil
}

// FetchTransactions returns up to max swap records as raw transactions,
// most recent first.
func (c *Client) FetchTransactions(ctx context.Context, address string, max int) ([]domain.RawTx, error) {
	swaps, err := c.FetchSwaps(ctx, address, FetchOptions{Max: max})
	if err != nil {
		return nil, err
	}
	return domain.SwapsToRawTxs(swaps, address), nil
}

// TokenActivity returns swaps on a token inside tr, by any wallet. Swap.From
// is the trader.
func (c *Client) TokenActivity(ctx context.Context, mint string, tr TimeRange) ([]domain.Swap, error) {
	q := pageQuery(mint, 1, c.cfg.PageSize)
	q["activity_type[]"] = swapActivityTypes
	if !tr.From.IsZero() {
		q.Set("from_time", strconv.FormatInt(tr.From.Unix(), 10))
	}
	if !tr.To.IsZero() {
		q.Set("to_time", strconv.FormatInt(tr.To.Unix(), 10))
	}

	env, err := c.get(ctx, "token_activity", mint, "token/defi/activities", q)
	if err != nil {
		return nil, err
	}

	var records []activityRecord
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, domain.NewRetrievalError("token_activity", mint, 0, err)
		}
	}

	swaps := make([]domain.Swap, 0, len(records))
	for _, r := range records {
		if r.TransID == "" || r.FromAddress == "" {
			continue
		}
		swaps = append(swaps, r.swap())
	}
	return swaps, nil
}
