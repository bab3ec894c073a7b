package types

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// SafeMath provides overflow-checked arithmetic over sdkmath.Int.
//
// sdkmath.Int panics once a result exceeds sdkmath.MaxBitLen bits. Every
// operation here pre-checks with big.Int and reports ErrArithmetic instead, so
// an oversized purchase fails the transaction rather than the node. Balances in
// this module are never negative, so subtraction below zero is an error too.
type SafeMath struct{}

// NewSafeMath creates a new SafeMath instance.
func NewSafeMath() *SafeMath {
	return &SafeMath{}
}

// SafeAdd performs overflow-checked addition.
func (sm *SafeMath) SafeAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	sumBig := new(big.Int).Add(a.BigInt(), b.BigInt())
	if sumBig.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrArithmetic, "addition overflow: %s + %s", a, b)
	}
	return sdkmath.NewIntFromBigInt(sumBig), nil
}

// SafeSub performs subtraction that must not go below zero.
func (sm *SafeMath) SafeSub(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.LT(b) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrArithmetic, "subtraction underflow: %s - %s", a, b)
	}
	return a.Sub(b), nil
}

// SafeMul performs overflow-checked multiplication.
func (sm *SafeMath) SafeMul(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsZero() || b.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	productBig := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if productBig.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrArithmetic, "multiplication overflow: %s * %s", a, b)
	}
	return sdkmath.NewIntFromBigInt(productBig), nil
}

// SafeMulDiv computes (a * b) / c with truncation and a wide intermediate.
func (sm *SafeMath) SafeMulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	if c.IsZero() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(ErrArithmetic, "division by zero in MulDiv")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	resultBig := new(big.Int).Quo(intermediate, c.BigInt())
	if resultBig.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrArithmetic, "MulDiv overflow: %s * %s / %s", a, b, c)
	}
	return sdkmath.NewIntFromBigInt(resultBig), nil
}

// SafePrecisionMultiply scales value by a rate expressed in Precision units.
// Example: SafePrecisionMultiply(1000, 500) = 1000 * 500 / 10000 = 50
func (sm *SafeMath) SafePrecisionMultiply(value sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	return sm.SafeMulDiv(value, sdkmath.NewIntFromUint64(rate), sdkmath.NewIntFromUint64(Precision))
}
