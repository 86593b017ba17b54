package linear

// Option configures LinearRegression and Ridge.
type Option func(*options)

type options struct {
	fitIntercept bool
	rcond        float64
	alpha        float64
}

func defaultOptions() options {
	return options{fitIntercept: true, rcond: -1, alpha: 1}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(o *options) {
		o.fitIntercept = fit
	}
}

// WithRcond sets the relative cutoff below which singular values are treated
// as zero. A negative value selects machine epsilon times max(n_samples, n_features).
func WithRcond(rcond float64) Option {
	return func(o *options) {
		o.rcond = rcond
	}
}

// WithAlpha sets the L2 penalty strength of Ridge.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}
