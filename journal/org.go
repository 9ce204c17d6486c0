package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/flashbot/sim"
)

// FormatTradeOrg renders a trade as an Org-mode block for pasting into a
// trading journal. Structured facts go in the PROPERTIES drawer.
func FormatTradeOrg(t sim.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s (%s)\n", t.Action, t.Pair, shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, ":PAIR: %s\n", t.Pair)
	fmt.Fprintf(&b, ":ACTION: %s\n", t.Action)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.2f\n", t.Price)
	fmt.Fprintf(&b, ":AMOUNT: %.8f\n", t.Amount)
	fmt.Fprintf(&b, ":TAKE_PROFIT: %.2f\n", t.TakeProfit)
	fmt.Fprintf(&b, ":STOP_LOSS: %.2f\n", t.StopLoss)
	fmt.Fprintf(&b, ":BUE: %.2f\n", t.FairValue)
	fmt.Fprintf(&b, ":DELTA_PCT: %.2f\n", t.Delta*100)
	fmt.Fprintf(&b, ":STATUS: %s\n", t.Status)
	if t.Status == sim.StatusClosed {
		fmt.Fprintf(&b, ":CLOSE_PRICE: %.2f\n", t.ClosePrice)
		fmt.Fprintf(&b, ":CLOSE_REASON: %s\n", t.CloseReason)
		fmt.Fprintf(&b, ":PNL: %.2f\n", t.PnL)
	}
	b.WriteString(":END:\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
