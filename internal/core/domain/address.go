package domain

import (
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// IsValidUserID reports whether s is an acceptable user identity key.
func IsValidUserID(s string) bool {
	return userIDPattern.MatchString(s)
}

// IsValidAddress reports whether s is a well-formed hex Ethereum address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ToChecksumAddress returns the EIP-55 checksummed form of a hex address.
// The input must already be a valid hex address.
func ToChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}

// weiPerEther is 10^18 as a decimal exponent shift.
const weiExponent = 18

// ToWei converts a native-unit (ETH) amount to base units (wei).
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(weiExponent).Truncate(0).BigInt()
}

// FromWei converts base units (wei) to a native-unit (ETH) amount.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -weiExponent)
}
