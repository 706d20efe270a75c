package reemesh

import "go.uber.org/zap"

type decodeOptions struct {
	logger *zap.Logger
}

// Option configures DecodeMesh and DecodeMaterialDefinition.
type Option func(*decodeOptions)

// WithLogger routes decode progress to l at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *decodeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func newDecodeOptions(opts []Option) *decodeOptions {
	o := &decodeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
