package fund

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/oracle"
	"github.com/mtlprog/basket/internal/swap"
)

type leg struct {
	in, out   string
	amountIn  domain.Amount
	amountOut domain.Amount
}

// journal records executed swaps of an in-flight operation so they can be reversed on failure.
type journal struct {
	legs []leg
}

func (j *journal) add(l leg) {
	j.legs = append(j.legs, l)
}

// unwind reverses executed legs newest first. Failures are logged and do not stop the unwind.
func (j *journal) unwind(ctx context.Context, router swap.Router, ticker string) {
	ctx = context.WithoutCancel(ctx)
	for i := len(j.legs) - 1; i >= 0; i-- {
		l := j.legs[i]
		if _, err := router.Swap(ctx, l.out, l.in, l.amountOut); err != nil {
			slog.Error("unwinding swap failed",
				"fund", ticker, "from", l.out, "to", l.in, "amount", l.amountOut, "error", err)
		}
	}
	j.legs = nil
}

// swapChecked executes a swap and rejects fills worse than the oracle-implied output by more than
// the fund's slippage tolerance. A rejected fill stays in the journal so it is reversed too.
func (f *Fund) swapChecked(ctx context.Context, j *journal, in, out domain.Asset, amountIn domain.Amount, prices oracle.PriceSet) (domain.Amount, error) {
	got, err := f.router.Swap(ctx, in.ID, out.ID, amountIn)
	if err != nil {
		if errors.Is(err, domain.ErrSwapFailed) {
			return domain.Amount{}, fmt.Errorf("swapping %s to %s: %w", in, out, err)
		}
		return domain.Amount{}, fmt.Errorf("swapping %s to %s: %w: %w", in, out, domain.ErrSwapFailed, err)
	}
	j.add(leg{in: in.ID, out: out.ID, amountIn: amountIn, amountOut: got})

	expected, err := domain.AmountFor(domain.ValueOf(amountIn, in, prices[in.ID]), out, prices[out.ID])
	if err != nil {
		return domain.Amount{}, fmt.Errorf("swapping %s to %s: %w: %w", in, out, domain.ErrSwapFailed, err)
	}
	tolerance := domain.ApplyBasisPoints(expected.Decimal, f.opts.MaxSlippage)
	minOut := domain.Amount{Decimal: expected.Decimal.Sub(tolerance)}
	if got.Cmp(minOut) < 0 {
		return domain.Amount{}, fmt.Errorf("swapping %s to %s: got %s, want at least %s: %w",
			in, out, got, minOut, domain.ErrSwapFailed)
	}
	return got, nil
}
