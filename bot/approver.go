package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rustyeddy/flashbot/strategy"
)

// Approver decides whether a signalled trade is executed.
type Approver interface {
	Approve(ctx context.Context, sig strategy.Signal, price float64) (bool, error)
}

// AutoApprover executes every signal.
type AutoApprover struct{}

func (AutoApprover) Approve(context.Context, strategy.Signal, float64) (bool, error) {
	return true, nil
}

// ConsoleApprover prompts an operator and approves only on "go".
type ConsoleApprover struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsoleApprover(in io.Reader, out io.Writer) *ConsoleApprover {
	if out == nil {
		out = io.Discard
	}
	return &ConsoleApprover{in: bufio.NewReader(in), out: out}
}

type answer struct {
	line string
	err  error
}

// Approve blocks until a line is read or ctx is done. A closed input
// counts as a refusal.
func (a *ConsoleApprover) Approve(ctx context.Context, sig strategy.Signal, price float64) (bool, error) {
	fmt.Fprintf(a.out, "Execute %s at $%.2f? (go/no): ", sig.Action, price)

	ch := make(chan answer, 1)
	go func() {
		line, err := a.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans := <-ch:
		if ans.err != nil && !errors.Is(ans.err, io.EOF) {
			return false, fmt.Errorf("read approval: %w", ans.err)
		}
		return strings.EqualFold(strings.TrimSpace(ans.line), "go"), nil
	}
}
