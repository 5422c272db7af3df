package loyalty

import "errors"

// User-facing loyalty errors. Handlers map these to response messages; none
// of them leaves partial state behind.
var (
	// ErrInvalidAmount indicates a non-positive grant or debit amount.
	ErrInvalidAmount = errors.New("loyalty: amount must be positive")
	// ErrInsufficientPoints indicates the spendable balance cannot cover a debit.
	ErrInsufficientPoints = errors.New("loyalty: insufficient points")
	// ErrRewardNotFound indicates a missing or inactive reward.
	ErrRewardNotFound = errors.New("loyalty: reward not found")
	// ErrTierNotEligible indicates the account tier is below the reward requirement.
	ErrTierNotEligible = errors.New("loyalty: tier not eligible")
	// ErrConcurrencyConflict indicates the atomic redemption lost a race and
	// may be retried.
	ErrConcurrencyConflict = errors.New("loyalty: concurrent update conflict")
)
