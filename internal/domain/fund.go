package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundInfo is the immutable registry record of a fund plus its current allocation.
type FundInfo struct {
	ID          string       `json:"id"`
	Index       int          `json:"index"`
	Creator     string       `json:"creator"`
	Name        string       `json:"name"`
	Ticker      string       `json:"ticker"`
	Allocations []Allocation `json:"allocations"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Holding is one line of a basket snapshot.
type Holding struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
	Price  Price  `json:"price"`
	Value  Value  `json:"value"`
}

// BasketSnapshot is a point-in-time valuation of a fund's holdings.
type BasketSnapshot struct {
	FundID      string    `json:"fundId"`
	Ticker      string    `json:"ticker"`
	Holdings    []Holding `json:"holdings"`
	TotalValue  Value     `json:"totalValue"`
	TotalSupply Shares    `json:"totalSupply"`
	TakenAt     time.Time `json:"takenAt"`
}

// SharePrice returns the value of one whole share, or zero for an empty fund.
func (s BasketSnapshot) SharePrice() Value {
	if !s.TotalSupply.IsPositive() {
		return Value{}
	}
	return Value{MulDiv(s.TotalValue.Decimal, decimal.New(1, ShareDecimals), s.TotalSupply.Decimal)}
}

// CompositionEntry compares an asset's target weight with its current share of fund value.
type CompositionEntry struct {
	Asset        Asset       `json:"asset"`
	TargetWeight BasisPoints `json:"targetWeight"`
	ActualWeight BasisPoints `json:"actualWeight"`
	Amount       Amount      `json:"amount"`
	Value        Value       `json:"value"`
}

// Composition is the per-asset breakdown of a fund.
type Composition struct {
	FundID     string             `json:"fundId"`
	Entries    []CompositionEntry `json:"entries"`
	TotalValue Value              `json:"totalValue"`
	Display    string             `json:"display"`
}

// BuyReceipt describes a completed deposit.
type BuyReceipt struct {
	FundID          string            `json:"fundId"`
	Depositor       string            `json:"depositor"`
	Deposit         Amount            `json:"deposit"`
	Acquired        map[string]Amount `json:"acquired"`
	DepositValue    Value             `json:"depositValue"`
	FundValueBefore Value             `json:"fundValueBefore"`
	Shares          Shares            `json:"shares"`
}

// SellReceipt describes a completed redemption.
type SellReceipt struct {
	FundID    string            `json:"fundId"`
	Holder    string            `json:"holder"`
	Shares    Shares            `json:"shares"`
	Withdrawn map[string]Amount `json:"withdrawn"`
	Fee       Amount            `json:"fee"`
	Proceeds  Amount            `json:"proceeds"`
}

// RebalanceReport describes a completed rebalance.
type RebalanceReport struct {
	FundID     string            `json:"fundId"`
	Before     []Allocation      `json:"before"`
	After      []Allocation      `json:"after"`
	Sold       map[string]Amount `json:"sold"`
	Bought     map[string]Amount `json:"bought"`
	ValueAfter Value             `json:"valueAfter"`
}

// ActivityKind classifies fund activity records.
type ActivityKind string

const (
	ActivityBuy       ActivityKind = "buy"
	ActivitySell      ActivityKind = "sell"
	ActivityRebalance ActivityKind = "rebalance"
)

// Activity is an append-only record of a committed fund operation.
type Activity struct {
	FundID  string       `json:"fundId"`
	Kind    ActivityKind `json:"kind"`
	Account string       `json:"account"`
	Amount  Amount       `json:"amount"`
	Shares  Shares       `json:"shares"`
	Fee     Amount       `json:"fee"`
	At      time.Time    `json:"at"`

	// Allocations is set on rebalance records.
	Allocations []Allocation `json:"allocations,omitempty"`
}
