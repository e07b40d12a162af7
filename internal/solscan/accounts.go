// internal/solscan/accounts.go
package solscan

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

func pageQuery(address string, page, pageSize int) url.Values {
	q := url.Values{"address": {address}}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}

type transferRecord struct {
	TransID       string  `json:"trans_id"`
	BlockTime     int64   `json:"block_time"`
	ActivityType  string  `json:"activity_type"`
	FromAddress   string  `json:"from_address"`
	ToAddress     string  `json:"to_address"`
	TokenAddress  string  `json:"token_address"`
	TokenDecimals int     `json:"token_decimals"`
	Amount        float64 `json:"amount"`
	Flow          string  `json:"flow"`
}

// Transfers returns one page of plain transfers of address, most recent first.
func (c *Client) Transfers(ctx context.Context, address string, page, pageSize int) ([]domain.Transfer, error) {
	q := pageQuery(address, page, pageSize)
	q.Set("remove_spam", "true")
	q.Set("exclude_amount_zero", "true")

	env, err := c.get(ctx, "transfers", address, "account/transfer", q)
	if err != nil {
		return nil, err
	}

	var records []transferRecord
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, domain.NewRetrievalError("transfers", address, 0, err)
		}
	}

	out := make([]domain.Transfer, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Transfer{
			Signature: r.TransID,
			BlockTime: time.Unix(r.BlockTime, 0).UTC(),
			Token:     r.TokenAddress,
			Decimals:  r.TokenDecimals,
			Amount:    r.Amount,
			From:      r.FromAddress,
			To:        r.ToAddress,
			Outgoing:  r.Flow == "out" || (r.Flow == "" && r.FromAddress == address),
		})
	}
	return out, nil
}

// FetchTransfers pages through transfers until max records or a short page.
func (c *Client) FetchTransfers(ctx context.Context, address string, max int) ([]domain.RawTx, error) {
	var transfers []domain.Transfer
	for page := 1; page <= c.cfg.MaxPages; page++ {
		batch, err := c.Transfers(ctx, address, page, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, batch...)
		if (max > 0 && len(transfers) >= max) || len(batch) < c.cfg.PageSize {
			break
		}
	}
	if max > 0 && len(transfers) > max {
		transfers = transfers[:max]
	}

	out := make([]domain.RawTx, len(transfers))
	for i, t := range transfers {
		out[i] = t.RawTx(address, len(transfers)-1-i)
	}
	return out, nil
}

type holderRecord struct {
	Address  string  `json:"address"`
	Owner    string  `json:"owner"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
	Rank     int     `json:"rank"`
}

// TokenHolders returns one page of a token's holders and the total holder count.
// Amounts are in human units.
func (c *Client) TokenHolders(ctx context.Context, mint string, page, pageSize int) ([]domain.HolderRecord, int, error) {
	env, err := c.get(ctx, "holders", mint, "token/holders", pageQuery(mint, page, pageSize))
	if err != nil {
		return nil, 0, err
	}

	var data struct {
		Total int            `json:"total"`
		Items []holderRecord `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, 0, domain.NewRetrievalError("holders", mint, 0, err)
	}

	out := make([]domain.HolderRecord, 0, len(data.Items))
	for _, h := range data.Items {
		owner := h.Owner
		if owner == "" {
			owner = h.Address
		}
		out = append(out, domain.HolderRecord{
			Owner:    owner,
			Amount:   h.Amount / math.Pow10(h.Decimals),
			Decimals: h.Decimals,
			Rank:     h.Rank,
		})
	}
	return out, data.Total, nil
}

// FetchHolders collects up to limit holders across pages.
func (c *Client) FetchHolders(ctx context.Context, mint string, limit int) ([]domain.HolderRecord, error) {
	pageSize := c.cfg.PageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	var out []domain.HolderRecord
	for page := 1; page <= c.cfg.MaxPages; page++ {
		batch, _, err := c.TokenHolders(ctx, mint, page, pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if (limit > 0 && len(out) >= limit) || len(batch) < pageSize {
			break
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
