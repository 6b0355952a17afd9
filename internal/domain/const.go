package domain

const (
	// ZeroAddress is the reserved AVM null address. A transfer whose sender is
	// the zero address is a mint.
	ZeroAddress = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"

	// NativeCurrencyID is the currency identifier for listings priced in the
	// network token rather than an ARC-200 token.
	NativeCurrencyID uint64 = 0
)
