package catalog

import "strings"

// lotSeparator joins a base product code and a lot identifier in the
// uploaded product code, e.g. "SKU-17612 - L250300".
const lotSeparator = " - "

// ProductCode is the result of splitting a possibly lot-suffixed product
// code into its typed parts.
type ProductCode struct {
	Base string
	Lot  string
}

// HasLot returns true if the code carries a lot suffix
func (c ProductCode) HasLot() bool {
	return c.Lot != ""
}

// String returns the full product code, re-joining the lot suffix if present
func (c ProductCode) String() string {
	if c.Lot == "" {
		return c.Base
	}
	return c.Base + lotSeparator + c.Lot
}

// SplitProductCode splits a product code into base code and lot identifier.
// The lot suffix is everything after the last " - " separator. Codes without
// a separator, or with an empty segment on either side, are treated as plain
// base codes rather than silently misclassified.
func SplitProductCode(code string) ProductCode {
	code = strings.TrimSpace(code)
	idx := strings.LastIndex(code, lotSeparator)
	if idx <= 0 {
		return ProductCode{Base: code}
	}
	base := strings.TrimSpace(code[:idx])
	lot := strings.TrimSpace(code[idx+len(lotSeparator):])
	if base == "" || lot == "" {
		return ProductCode{Base: code}
	}
	return ProductCode{Base: base, Lot: lot}
}

// JoinProductCode builds the uploaded product code from a base code and an
// optional lot identifier.
func JoinProductCode(base, lot string) string {
	return ProductCode{Base: base, Lot: lot}.String()
}
