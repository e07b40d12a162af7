// internal/domain/transfer.go
package domain

import (
	"math"
	"time"
)

// Transfer is a single token or SOL movement to or from a wallet.
type Transfer struct {
	Signature string
	BlockTime time.Time
	Token     string
	Decimals  int
	Amount    float64
	From      string
	To        string
	Outgoing  bool
}

// RawTx converts the transfer into a balance delta of wallet.
func (t Transfer) RawTx(wallet string, feedIndex int) RawTx {
	amount := t.Amount / math.Pow10(t.Decimals)
	if t.Outgoing {
		amount = -amount
	}

	tx := RawTx{
		Signature: t.Signature,
		BlockTime: t.BlockTime,
		FeePayer:  t.From,
		FeedIndex: feedIndex,
	}
	if t.From != "" && t.From != wallet {
		tx.Counterparties = append(tx.Counterparties, t.From)
	}
	if t.To != "" && t.To != wallet {
		tx.Counterparties = append(tx.Counterparties, t.To)
	}

	if t.Token == NativeSOLMint {
		tx.SOLChange = int64(math.Round(amount * LamportsPerSOL))
		return tx
	}
	tx.TokenChanges = []TokenBalanceChange{
		{Mint: t.Token, Owner: wallet, Decimals: t.Decimals, PostAmount: amount},
	}
	return tx
}
