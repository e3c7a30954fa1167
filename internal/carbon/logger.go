package carbon

import "github.com/rs/zerolog"

// logger reports problems found while parsing the embedded tables.
// It discards everything until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger injects the logger used by the package. Call it once at startup,
// before the first lookup.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "carbon").Logger()
}
