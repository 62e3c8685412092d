package domain

import "math"

// BasisPointsDivisor is the denominator for every fee expressed in basis points.
const BasisPointsDivisor int64 = 10_000

// AddAmount returns a+b or ErrOverflow.
func AddAmount(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubAmount returns a-b or ErrOverflow.
func SubAmount(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulAmount returns a*b or ErrOverflow.
func MulAmount(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	r := a * b
	if r/b != a {
		return 0, ErrOverflow
	}
	return r, nil
}

// CalculateFee returns floor(amount * bps / 10000).
func CalculateFee(amount, bps int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if bps < 0 || bps > BasisPointsDivisor {
		return 0, ErrInvalidConfig
	}
	scaled, err := MulAmount(amount, bps)
	if err != nil {
		return 0, err
	}
	return scaled / BasisPointsDivisor, nil
}

// CalculatePayout returns what a winning even-money wager pays back:
// 2*wager minus the house edge fee on the wager.
func CalculatePayout(wager, houseEdgeBps int64) (int64, error) {
	if houseEdgeBps < 0 || houseEdgeBps > BasisPointsDivisor {
		return 0, ErrInvalidConfig
	}
	if wager < 0 {
		return 0, ErrInvalidAmount
	}
	gross, err := MulAmount(wager, 2)
	if err != nil {
		return 0, err
	}
	fee, err := CalculateFee(wager, houseEdgeBps)
	if err != nil {
		return 0, err
	}
	return SubAmount(gross, fee)
}

// CalculateMultiplierPayout pays multiplier*wager minus the house edge fee
// on the winnings portion, (multiplier-1)*wager.
func CalculateMultiplierPayout(wager, multiplier, houseEdgeBps int64) (int64, error) {
	if multiplier < 1 {
		return 0, ErrInvalidConfig
	}
	if wager < 0 {
		return 0, ErrInvalidAmount
	}
	winnings, err := MulAmount(wager, multiplier-1)
	if err != nil {
		return 0, err
	}
	fee, err := CalculateFee(winnings, houseEdgeBps)
	if err != nil {
		return 0, err
	}
	gross, err := MulAmount(wager, multiplier)
	if err != nil {
		return 0, err
	}
	return SubAmount(gross, fee)
}
