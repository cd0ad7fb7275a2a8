// Package wallet keeps account balances and spending allowances for a single asset.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mtlprog/basket/internal/domain"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Book holds balances and allowances of one asset.
type Book struct {
	asset string

	mu         sync.Mutex
	balances   map[string]domain.Amount
	allowances map[string]map[string]domain.Amount
	burned     domain.Amount
}

// NewBook creates an empty book for asset.
func NewBook(asset string) *Book {
	return &Book{
		asset:      asset,
		balances:   make(map[string]domain.Amount),
		allowances: make(map[string]map[string]domain.Amount),
	}
}

// Asset returns the asset ID the book tracks.
func (b *Book) Asset() string { return b.asset }

// Credit adds amount to account, creating new supply.
func (b *Book) Credit(account string, amount domain.Amount) error {
	if !amount.IsPositive() {
		return domain.ErrZeroAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
	return nil
}

// Debit removes amount from account.
func (b *Book) Debit(account string, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debitLocked(account, amount)
}

// Transfer moves amount between accounts.
func (b *Book) Transfer(from, to string, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.debitLocked(from, amount); err != nil {
		return err
	}
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}

// Approve sets the amount spender may move out of owner's account.
func (b *Book) Approve(owner, spender string, amount domain.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[string]domain.Amount)
	}
	b.allowances[owner][spender] = amount
}

// Allowance returns what spender may still move out of owner's account.
func (b *Book) Allowance(owner, spender string) domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowances[owner][spender]
}

// TransferFrom moves amount from owner to recipient on behalf of spender, consuming allowance.
func (b *Book) TransferFrom(spender, owner, recipient string, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.spendLocked(spender, owner, amount); err != nil {
		return err
	}
	b.balances[recipient] = b.balances[recipient].Add(amount)
	return nil
}

// BurnFrom destroys amount from owner on behalf of spender, consuming allowance.
func (b *Book) BurnFrom(spender, owner string, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.spendLocked(spender, owner, amount); err != nil {
		return err
	}
	b.burned = b.burned.Add(amount)
	return nil
}

// BalanceOf returns account's balance.
func (b *Book) BalanceOf(account string) domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Burned returns the total amount destroyed through BurnFrom.
func (b *Book) Burned() domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.burned
}

func (b *Book) spendLocked(spender, owner string, amount domain.Amount) error {
	if !amount.IsPositive() {
		return domain.ErrZeroAmount
	}
	allowed := b.allowances[owner][spender]
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%s may spend %s of %s's %s, needs %s: %w", spender, allowed, owner, b.asset, amount, ErrInsufficientAllowance)
	}
	if err := b.debitLocked(owner, amount); err != nil {
		return err
	}
	b.allowances[owner][spender] = allowed.Sub(amount)
	return nil
}

func (b *Book) debitLocked(account string, amount domain.Amount) error {
	if amount.IsNegative() {
		return fmt.Errorf("negative amount %s", amount)
	}
	bal := b.balances[account]
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%s holds %s %s, needs %s: %w", account, bal, b.asset, amount, ErrInsufficientBalance)
	}
	b.balances[account] = bal.Sub(amount)
	return nil
}

// Custody moves the base asset between investors and funds.
type Custody struct {
	book *Book
}

// NewCustody creates a Custody over book.
func NewCustody(book *Book) *Custody {
	if book == nil {
		panic("wallet.NewCustody: book must not be nil")
	}
	return &Custody{book: book}
}

// Collect takes a deposit out of the investor's account.
func (c *Custody) Collect(_ context.Context, from string, amount domain.Amount) error {
	if err := c.book.Debit(from, amount); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return fmt.Errorf("%w: %w", domain.ErrInsufficientFunds, err)
		}
		return err
	}
	return nil
}

// Pay credits redemption proceeds to the investor's account.
func (c *Custody) Pay(_ context.Context, to string, amount domain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	return c.book.Credit(to, amount)
}
