package settings

// DB config keys and defaults for loyalty program tunables.
const (
	// PointsValidityDaysKey controls how long granted points stay spendable.
	PointsValidityDaysKey = "POINTS_VALIDITY_DAYS"
	// CouponValidityDaysKey controls the redemption coupon validity window.
	CouponValidityDaysKey = "COUPON_VALIDITY_DAYS"
	// ReconcileBackoffSecondsKey controls the order reconciliation retry spacing.
	ReconcileBackoffSecondsKey = "RECONCILE_BACKOFF_SECONDS"
	// ReconcileMaxAttemptsKey controls the order reconciliation attempt bound.
	ReconcileMaxAttemptsKey = "RECONCILE_MAX_ATTEMPTS"

	// DefaultPointsValidityDays is the fallback points validity (days).
	DefaultPointsValidityDays = 365
	// DefaultCouponValidityDays is the fallback coupon validity (days).
	DefaultCouponValidityDays = 30
	// DefaultReconcileBackoffSeconds is the fallback retry spacing (seconds).
	DefaultReconcileBackoffSeconds = 3
	// DefaultReconcileMaxAttempts is the fallback attempt bound.
	DefaultReconcileMaxAttempts = 10
)

// PointsValidityDays returns the configured points validity window in days.
func PointsValidityDays() int {
	return intValue(PointsValidityDaysKey, DefaultPointsValidityDays)
}

// CouponValidityDays returns the configured coupon validity window in days.
func CouponValidityDays() int {
	return intValue(CouponValidityDaysKey, DefaultCouponValidityDays)
}

// ReconcileBackoffSeconds returns the reconciliation retry spacing in seconds.
func ReconcileBackoffSeconds() int {
	return intValue(ReconcileBackoffSecondsKey, DefaultReconcileBackoffSeconds)
}

// ReconcileMaxAttempts returns the reconciliation attempt bound.
func ReconcileMaxAttempts() int {
	return intValue(ReconcileMaxAttemptsKey, DefaultReconcileMaxAttempts)
}
