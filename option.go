package bytebuffers

type Options struct {
	ZeroOnReset bool
}

type Option func(options *Options) (err error)

// WithZeroOnReset
// zero the whole backing storage whenever the buffer is fully drained via
// Reset, Drain or DrainString. Hygiene measure for buffers that carried
// sensitive payloads; costs a clear of Cap() bytes per drain.
func WithZeroOnReset() Option {
	return func(options *Options) (err error) {
		options.ZeroOnReset = true
		return
	}
}
