package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"rollup_book/internal/writereq"
)

var (
	ErrNotReady    = errors.New("write spec not ready")
	ErrNotPrepared = errors.New("write not prepared")
)

// maxPrepared bounds the preparation cache; it is cleared when full.
const maxPrepared = 64

// Backend is the subset of ethclient.Client the signer needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Signer holds one account key and signs legacy transactions for it.
// A spec must be prepared (gas estimated) before it can be submitted.
type Signer struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	gasLimit uint64

	mu       sync.Mutex
	prepared map[string]uint64 // target:calldata -> gas

	sendMu sync.Mutex // one nonce lookup + send at a time
}

// NewSigner parses hexKey (with or without 0x). gasLimit 0 means estimate.
func NewSigner(backend Backend, hexKey string, chainID int64, gasLimit uint64) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{
		backend:  backend,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(chainID),
		gasLimit: gasLimit,
		prepared: make(map[string]uint64),
	}, nil
}

// From is the account that signs and pays for transactions.
func (s *Signer) From() common.Address { return s.from }

func cacheKey(spec writereq.WriteSpec, data []byte) string {
	return spec.Target.Hex() + ":" + hexutil.Encode(data)
}

// Prepare estimates gas for spec and caches the result.
func (s *Signer) Prepare(ctx context.Context, spec writereq.WriteSpec) error {
	if !spec.Ready {
		return ErrNotReady
	}
	data, err := Pack(spec)
	if err != nil {
		return err
	}

	gas := s.gasLimit
	if gas == 0 {
		to := spec.Target
		est, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: s.from, To: &to, Data: data})
		if err != nil {
			return fmt.Errorf("estimate %s: %w", spec.Kind, err)
		}
		gas = est + est/5
	}

	s.mu.Lock()
	if len(s.prepared) >= maxPrepared {
		s.prepared = make(map[string]uint64)
	}
	s.prepared[cacheKey(spec, data)] = gas
	s.mu.Unlock()
	return nil
}

// Prepared reports whether spec has a cached preparation.
func (s *Signer) Prepared(spec writereq.WriteSpec) bool {
	_, ok := s.gasFor(spec)
	return ok
}

func (s *Signer) gasFor(spec writereq.WriteSpec) (uint64, bool) {
	if !spec.Ready {
		return 0, false
	}
	data, err := Pack(spec)
	if err != nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	gas, ok := s.prepared[cacheKey(spec, data)]
	return gas, ok
}

// Submit signs and sends spec. It does not wait for inclusion.
func (s *Signer) Submit(ctx context.Context, spec writereq.WriteSpec) (common.Hash, error) {
	if !spec.Ready {
		return common.Hash{}, ErrNotReady
	}
	gas, ok := s.gasFor(spec)
	if !ok {
		return common.Hash{}, ErrNotPrepared
	}
	data, err := Pack(spec)
	if err != nil {
		return common.Hash{}, err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}
	price, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}

	to := spec.Target
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price,
		Gas:      gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send %s: %w", spec.Kind, err)
	}

	slog.Info("Transaction submitted",
		slog.String("kind", spec.Kind.String()),
		slog.String("to", to.Hex()),
		slog.String("hash", signed.Hash().Hex()),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas", gas),
	)
	return signed.Hash(), nil
}
