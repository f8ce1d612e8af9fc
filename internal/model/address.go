package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is returned by pair lookups when no pair exists.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress validates a hex address and returns its lower-case form.
func NormalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid address: %s", input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

// NormalizeAddresses normalizes a list of addresses, skipping blanks and keeping order.
func NormalizeAddresses(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		addr, err := NormalizeAddress(input)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// IsZeroAddress reports whether addr is empty or the zero address.
func IsZeroAddress(addr string) bool {
	return addr == "" || strings.EqualFold(addr, ZeroAddress)
}
