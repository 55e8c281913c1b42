package execution

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"rollup_book/internal/infra/chain"
	"rollup_book/internal/writereq"
)

// Submission is one write the dry-run signer accepted.
type Submission struct {
	Kind     writereq.Kind
	Target   common.Address
	Calldata []byte
	Hash     common.Hash
}

// DryRunSigner is a safe signer that only logs and records writes.
// Calldata is still ABI-packed, so a spec that could not be sent on chain
// cannot be prepared here either.
type DryRunSigner struct {
	mu       sync.Mutex
	prepared map[string]bool
	sent     []Submission
}

func NewDryRunSigner() *DryRunSigner {
	return &DryRunSigner{prepared: make(map[string]bool)}
}

func dryKey(spec writereq.WriteSpec, data []byte) string {
	return spec.Target.Hex() + ":" + hexutil.Encode(data)
}

func (d *DryRunSigner) Prepare(ctx context.Context, spec writereq.WriteSpec) error {
	if !spec.Ready {
		return chain.ErrNotReady
	}
	data, err := chain.Pack(spec)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.prepared[dryKey(spec, data)] = true
	d.mu.Unlock()
	return nil
}

func (d *DryRunSigner) Prepared(spec writereq.WriteSpec) bool {
	if !spec.Ready {
		return false
	}
	data, err := chain.Pack(spec)
	if err != nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prepared[dryKey(spec, data)]
}

func (d *DryRunSigner) Submit(ctx context.Context, spec writereq.WriteSpec) (common.Hash, error) {
	if !d.Prepared(spec) {
		return common.Hash{}, chain.ErrNotPrepared
	}
	data, err := chain.Pack(spec)
	if err != nil {
		return common.Hash{}, err
	}

	d.mu.Lock()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(d.sent)))
	hash := crypto.Keccak256Hash(spec.Target.Bytes(), data, n[:])
	d.sent = append(d.sent, Submission{Kind: spec.Kind, Target: spec.Target, Calldata: data, Hash: hash})
	d.mu.Unlock()

	attrs := []any{
		slog.String("kind", spec.Kind.String()),
		slog.String("to", spec.Target.Hex()),
		slog.String("hash", hash.Hex()),
	}
	if len(spec.Args) == 1 {
		if payload, ok := spec.Args[0].([]byte); ok {
			attrs = append(attrs, slog.String("payload", string(payload)))
		}
	}
	slog.Info("DRY RUN: write not sent", attrs...)
	return hash, nil
}

// Submissions returns a copy of everything submitted so far.
func (d *DryRunSigner) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Submission(nil), d.sent...)
}
