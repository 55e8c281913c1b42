package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/dispatch"
	"rollup_book/internal/writereq"
)

// ErrQuit ends a shell loop.
var ErrQuit = errors.New("quit")

const shellHelp = `commands:
  set <field> <value>     edit side|quantity|price|token|amount|order_id
  submit <kind>           approve|deposit|order|cancel
  address <addr|none>     connect or disconnect an account
  show                    inputs, write readiness and the synchronized state
  help
  quit`

// Shell is a line-oriented front end over a Session.
type Shell struct {
	session *Session
	out     io.Writer
}

func NewShell(s *Session, out io.Writer) *Shell {
	return &Shell{session: s, out: out}
}

// Loop reads commands from in until EOF, quit or ctx is done.
func (sh *Shell) Loop(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(sh.out, `type "help" for commands`)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sh.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
		}
	}
}

// Exec runs one command line.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "set":
		if len(args) < 1 {
			return errors.New("usage: set <field> <value>")
		}
		f, err := ParseField(args[0])
		if err != nil {
			return err
		}
		// An empty value clears the field.
		return sh.session.Edit(f, strings.Join(args[1:], " "))

	case "submit":
		if len(args) != 1 {
			return errors.New("usage: submit <kind>")
		}
		k, err := writereq.ParseKind(args[0])
		if err != nil {
			return err
		}
		if sh.session.Pending() {
			fmt.Fprintln(sh.out, "note: an edit is still settling; submitting the last stable inputs")
		}
		res, err := sh.session.Trigger(ctx, k)
		sh.printResult(res)
		return err

	case "address":
		if len(args) != 1 {
			return errors.New("usage: address <addr|none>")
		}
		if strings.EqualFold(args[0], "none") {
			sh.session.SetAddress(nil)
			return nil
		}
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid address %q", args[0])
		}
		addr := common.HexToAddress(args[0])
		sh.session.SetAddress(&addr)
		return nil

	case "show":
		sh.show()
		return nil

	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return nil

	case "quit", "exit":
		return ErrQuit

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (sh *Shell) printResult(res dispatch.Result) {
	switch res.Outcome {
	case dispatch.Submitted:
		fmt.Fprintf(sh.out, "%s submitted: %s\n", res.Kind, res.TxHash.Hex())
	case dispatch.NotReady, dispatch.NotPrepared:
		fmt.Fprintf(sh.out, "%s %s: %s\n", res.Kind, res.Outcome, res.Reason)
	case dispatch.Rejected:
		fmt.Fprintf(sh.out, "%s rejected\n", res.Kind)
	}
}

func (sh *Shell) show() {
	in := sh.session.Inputs()
	fmt.Fprintf(sh.out, "inputs: side=%q quantity=%q price=%q token=%q amount=%q order_id=%q\n",
		in.Side, in.Quantity, in.Price, in.DepositToken, in.DepositAmount, in.CancelOrderID)

	specs := sh.session.Specs()
	for _, k := range writereq.Kinds {
		spec, _ := specs.Get(k)
		if spec.Ready {
			fmt.Fprintf(sh.out, "  %-12s ready -> %s.%s\n", k, spec.Target.Hex(), spec.Method)
		} else {
			fmt.Fprintf(sh.out, "  %-12s not ready (%s)\n", k, spec.Reason)
		}
	}

	snap := sh.session.Store().Snapshot()
	account := "none"
	if snap.Address != nil {
		account = snap.Address.Hex()
	}
	fmt.Fprintf(sh.out, "account: %s\n", account)
	fmt.Fprintf(sh.out, "book: %d asks, %d bids (version %d)\n", len(snap.PublicAsks), len(snap.PublicBids), snap.Version)
	if snap.Address != nil {
		fmt.Fprintf(sh.out, "orders: %d asks, %d bids\n", len(snap.UserAsks), len(snap.UserBids))
		for _, b := range snap.UserBalances {
			reserved, err := b.Reserved()
			if err != nil {
				fmt.Fprintf(sh.out, "balance %s: %v\n", b.Token.Hex(), err)
				continue
			}
			line := fmt.Sprintf("balance %s: total=%s available=%s reserved=%s", b.Token.Hex(), b.Total, b.Available, reserved)
			if b.Available.IsZero() && !b.Total.IsZero() {
				line += " (all locked)"
			}
			fmt.Fprintln(sh.out, line)
		}
	}
}
