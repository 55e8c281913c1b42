// Package dispatch turns a user's "submit" on one write kind into at most one
// call to the signing surface.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/storage"
	"rollup_book/internal/writereq"
)

// Outcome is the result of one trigger.
type Outcome int

const (
	Submitted   Outcome = iota + 1
	NotReady            // spec inputs invalid; no-op
	NotPrepared         // signer has no preparation for the spec yet; no-op
	Rejected            // signer refused or failed
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "SUBMITTED"
	case NotReady:
		return "NOT_READY"
	case NotPrepared:
		return "NOT_PREPARED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

var ErrUnknownKind = errors.New("unknown write kind")

// Signer is the wallet-signing surface.
type Signer interface {
	// Prepare readies spec for submission (e.g. gas estimation).
	Prepare(ctx context.Context, spec writereq.WriteSpec) error
	// Prepared reports, without blocking, whether spec can be submitted now.
	Prepared(spec writereq.WriteSpec) bool
	// Submit signs and sends spec once.
	Submit(ctx context.Context, spec writereq.WriteSpec) (common.Hash, error)
}

// SpecSource yields the current spec per kind. *writereq.Tracker implements it.
type SpecSource interface {
	Spec(k writereq.Kind) (writereq.WriteSpec, bool)
}

// Journal records every trigger.
type Journal interface {
	Record(ctx context.Context, e storage.Entry) (storage.Entry, error)
}

// Result describes one trigger.
type Result struct {
	Kind    writereq.Kind
	Outcome Outcome
	TxHash  common.Hash
	Reason  string
}

// Dispatcher does not retry, queue or dedupe: two concurrent triggers of the
// same kind both reach the signer.
type Dispatcher struct {
	specs   SpecSource
	signer  Signer
	journal Journal
	metrics *Metrics
}

// NewDispatcher creates a dispatcher. journal may be nil.
func NewDispatcher(specs SpecSource, signer Signer, journal Journal, metrics *Metrics) *Dispatcher {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Dispatcher{specs: specs, signer: signer, journal: journal, metrics: metrics}
}

// Trigger submits the current spec of kind k if it is ready and prepared.
// NotReady and NotPrepared return a nil error. Rejected returns the signer's error.
func (d *Dispatcher) Trigger(ctx context.Context, k writereq.Kind) (Result, error) {
	spec, ok := d.specs.Spec(k)
	if !ok {
		return Result{Kind: k}, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}

	res := Result{Kind: k}
	var err error
	switch {
	case !spec.Ready:
		res.Outcome = NotReady
		res.Reason = spec.Reason
		slog.Debug("Trigger ignored: not ready", slog.String("kind", k.String()), slog.String("reason", spec.Reason))

	case !d.signer.Prepared(spec):
		res.Outcome = NotPrepared
		slog.Debug("Trigger ignored: not prepared", slog.String("kind", k.String()))

	default:
		start := time.Now()
		var hash common.Hash
		hash, err = d.signer.Submit(ctx, spec)
		d.metrics.SubmitSeconds.With("kind", k.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			res.Outcome = Rejected
			res.Reason = err.Error()
			err = fmt.Errorf("%s rejected: %w", k, err)
			slog.Warn("Write rejected", slog.String("kind", k.String()), slog.Any("error", err))
		} else {
			res.Outcome = Submitted
			res.TxHash = hash
		}
	}

	d.metrics.Triggers.With("kind", k.String(), "outcome", res.Outcome.String()).Add(1)
	d.record(ctx, spec, res)
	return res, err
}

// PrepareAll asks the signer to prepare every ready spec. Failures leave the
// spec unprepared and are only logged.
func (d *Dispatcher) PrepareAll(ctx context.Context, specs writereq.Specs) {
	for _, k := range writereq.Kinds {
		spec, _ := specs.Get(k)
		if !spec.Ready || d.signer.Prepared(spec) {
			continue
		}
		if err := d.signer.Prepare(ctx, spec); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Warn("Write preparation failed", slog.String("kind", k.String()), slog.Any("error", err))
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, spec writereq.WriteSpec, res Result) {
	if d.journal == nil {
		return
	}
	e := storage.Entry{
		Kind:    res.Kind.String(),
		Outcome: res.Outcome.String(),
		Error:   res.Reason,
	}
	if spec.Ready {
		e.Target = spec.Target.Hex()
		if len(spec.Args) == 1 {
			if payload, ok := spec.Args[0].([]byte); ok {
				e.Payload = string(payload)
			}
		}
	}
	if res.Outcome == Submitted {
		e.TxHash = res.TxHash.Hex()
	}
	// The journal must not fail a trigger that already reached the signer.
	if _, err := d.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("Failed to journal dispatch", slog.Any("error", err))
	}
}
