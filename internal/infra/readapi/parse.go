package readapi

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/valyala/fastjson"

	"rollup_book/internal/domain"
	"rollup_book/pkg/quant"
)

// ErrMalformed marks a response body that does not match the endpoint schema.
var ErrMalformed = errors.New("malformed response")

var parserPool fastjson.ParserPool

// numText returns the literal text of a numeric field. Both JSON numbers and
// numeric strings are accepted; the text is never routed through float64.
func numText(v *fastjson.Value, key string) (string, error) {
	f := v.Get(key)
	if f == nil {
		return "", fmt.Errorf("%w: missing %q", ErrMalformed, key)
	}
	switch f.Type() {
	case fastjson.TypeNumber:
		return f.String(), nil
	case fastjson.TypeString:
		return string(f.GetStringBytes()), nil
	default:
		return "", fmt.Errorf("%w: %q is %s", ErrMalformed, key, f.Type())
	}
}

// rows parses body and returns its top-level array. null is an empty list.
func rows(p *fastjson.Parser, body []byte) ([]*fastjson.Value, error) {
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return arr, nil
}

// ParseLevels decodes a book endpoint body: [{"price":..,"quantity":..}].
func ParseLevels(body []byte) ([]domain.Level, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	arr, err := rows(p, body)
	if err != nil {
		return nil, err
	}
	levels := make([]domain.Level, 0, len(arr))
	for i, row := range arr {
		ps, err := numText(row, "price")
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		qs, err := numText(row, "quantity")
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		price, err := quant.ParseDecimal(ps)
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		qty, err := quant.ParseDecimal(qs)
		if err != nil {
			return nil, fmt.Errorf("level %d quantity: %w", i, err)
		}
		levels = append(levels, domain.Level{Price: price, Quantity: qty})
	}
	return levels, nil
}

// ParseBalances decodes the balance endpoint body:
// [{"token":"0x..","total":..,"available":..}] in smallest units.
// A row with available > total fails the whole body.
func ParseBalances(body []byte) ([]domain.Balance, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	arr, err := rows(p, body)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Balance, 0, len(arr))
	for i, row := range arr {
		token := string(row.GetStringBytes("token"))
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("balance %d: %w: bad token %q", i, ErrMalformed, token)
		}
		ts, err := numText(row, "total")
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		as, err := numText(row, "available")
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		total, err := quant.ParseFixed18Units(ts)
		if err != nil {
			return nil, fmt.Errorf("balance %d total: %w", i, err)
		}
		avail, err := quant.ParseFixed18Units(as)
		if err != nil {
			return nil, fmt.Errorf("balance %d available: %w", i, err)
		}
		b := domain.Balance{Token: common.HexToAddress(token), Total: total, Available: avail}
		if err := b.VerifyInvariant(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out = append(out, b)
	}
	return out, nil
}
