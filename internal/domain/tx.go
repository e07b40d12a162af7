// internal/domain/tx.go
package domain

import (
	"fmt"
	"time"
)

// Well-known mints.
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	NativeSOLMint  = "So11111111111111111111111111111111111111111"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"

	LamportsPerSOL = 1_000_000_000
)

// TokenBalanceChange is a pre/post token balance of one owner inside a transaction.
// Amounts are in human units (already scaled by decimals).
type TokenBalanceChange struct {
	Mint       string
	Owner      string
	Decimals   int
	PreAmount  float64
	PostAmount float64
}

// Delta returns PostAmount - PreAmount.
func (c TokenBalanceChange) Delta() float64 {
	return c.PostAmount - c.PreAmount
}

// RawTx is an upstream transaction record reduced to the fields the analytics consume.
// SOLChange is the signed lamport delta of the analysed wallet with the network fee excluded.
// FeedIndex orders records sharing a block time; ascending is chronological.
type RawTx struct {
	Signature      string
	BlockTime      time.Time
	Slot           uint64
	Platform       string
	FeePayer       string
	Counterparties []string
	SOLChange      int64
	TokenChanges   []TokenBalanceChange
	FeedIndex      int
}

// SOLDelta returns SOLChange in SOL.
func (tx RawTx) SOLDelta() float64 {
	return float64(tx.SOLChange) / LamportsPerSOL
}

// TradeKind is the classification of a wallet movement.
type TradeKind string

const (
	KindBuy         TradeKind = "buy"
	KindSell        TradeKind = "sell"
	KindTransferIn  TradeKind = "transfer_in"
	KindTransferOut TradeKind = "transfer_out"
)

// Direction selects the fee schedule.
type Direction int

const (
	DirectionBuy Direction = iota
	DirectionSell
)

func (d Direction) String() string {
	if d == DirectionSell {
		return "sell"
	}
	return "buy"
}

// ClassifiedTrade is one recognised wallet movement on a single token.
type ClassifiedTrade struct {
	Signature   string
	Timestamp   time.Time
	Kind        TradeKind
	TokenMint   string
	SOLAmount   float64
	TokenAmount float64
	FeeSOL      float64
	FeedIndex   int
	Leg         int
}

// IsTrade reports whether the movement was a DEX buy or sell.
func (t ClassifiedTrade) IsTrade() bool {
	return t.Kind == KindBuy || t.Kind == KindSell
}

func (t ClassifiedTrade) String() string {
	return fmt.Sprintf("%s %s %.6f tokens for %.6f SOL at %s",
		t.Kind, t.TokenMint, t.TokenAmount, t.SOLAmount, t.Timestamp.UTC().Format(time.RFC3339))
}

// HolderRecord is one entry of a token's holder list.
type HolderRecord struct {
	Owner    string
	Amount   float64
	Decimals int
	Rank     int
}
