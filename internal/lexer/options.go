package lexer

import (
	"tsl/internal/diag"
)

// Options configures a Lexer.
type Options struct {
	// MaxTokenLen bounds a single token's byte length; 0 means no limit.
	MaxTokenLen uint32
	// Verbose traces every produced token to stderr (parser diagnostics).
	Verbose bool
	// Reporter receives lexical diagnostics; nil means they are dropped.
	Reporter diag.Reporter
}

func (o *Options) reporter() diag.Reporter {
	if o.Reporter == nil {
		return diag.NopReporter{}
	}
	return o.Reporter
}
