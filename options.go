package xlcalc

import (
	"io"
	"log"
)

// Options holds configuration shared by Spreadsheet and Services.
type Options struct {
	parse  ParseFunc
	logger *log.Logger
}

func defaultOptions() *Options {
	return &Options{
		parse:  Parse,
		logger: log.New(io.Discard, "", 0),
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Spreadsheet or Services.
type Option func(*Options)

// WithParser replaces the formula parser (default: Parse).
func WithParser(parse ParseFunc) Option {
	return func(o *Options) {
		if parse != nil {
			o.parse = parse
		}
	}
}

// WithLogger sets the logger for transaction and store events (default: discard).
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
