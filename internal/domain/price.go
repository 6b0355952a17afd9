package domain

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// PriceKind discriminates how a marketplace listing is denominated.
type PriceKind uint8

const (
	// PriceNative denominates the listing in the network token.
	PriceNative PriceKind = iota
	// PriceToken denominates the listing in an ARC-200 token.
	PriceToken
)

// ListPrice is the decoded form of the marketplace (byte,byte[40]) listPrice
// payload: a one-byte discriminant followed by an eight-byte currency
// identifier and a uint256 price.
type ListPrice struct {
	Kind     PriceKind
	Currency uint64
	Price    *big.Int
}

// listPriceSize is the wire size of the tagged payload.
const listPriceSize = 41

// DecodeListPrice decodes the tagged currency/price payload emitted by
// marketplace list events. Discriminant 0x00 selects the native currency,
// any other value selects the ARC-200 token named by the currency field.
func DecodeListPrice(b []byte) (ListPrice, error) {
	if len(b) != listPriceSize {
		return ListPrice{}, fmt.Errorf("list price payload must be %d bytes, got %d", listPriceSize, len(b))
	}

	price := new(big.Int).SetBytes(b[9:])
	if b[0] == 0x00 {
		return ListPrice{
			Kind:     PriceNative,
			Currency: NativeCurrencyID,
			Price:    price,
		}, nil
	}

	return ListPrice{
		Kind:     PriceToken,
		Currency: binary.BigEndian.Uint64(b[1:9]),
		Price:    price,
	}, nil
}

// String renders the price for logging.
func (p ListPrice) String() string {
	if p.Kind == PriceNative {
		return fmt.Sprintf("%s (native)", p.Price)
	}
	return fmt.Sprintf("%s (currency %d)", p.Price, p.Currency)
}
