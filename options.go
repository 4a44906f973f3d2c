package fontastic

import (
	"log/slog"
	"time"

	"github.com/tdewolff/fontastic/sfnt"
)

// Options configures a font project. The zero value is usable: it builds into the current directory without packaging.
type Options struct {
	// Dir is the parent directory of the per-font working directory <Dir>/<name>.
	Dir string

	// Logger receives warnings and, when Debug is set, debug messages. By default nothing is logged.
	Logger *slog.Logger
	Debug  bool

	// Engine builds the TrueType font. Each font gets its own engine when nil.
	Engine *sfnt.Engine

	WOFF  bool // write <name>.woff and template.html
	WOFF2 bool // write <name>.woff2

	// Template is the path of the HTML preview template. The embedded template is used when empty.
	Template string

	// Modified is stored as the creation and modification date of the font. Keep it zero for byte-identical builds.
	Modified time.Time
}

// DefaultOptions returns options that build into the data directory and package the font as WOFF with an HTML preview.
func DefaultOptions() Options {
	return Options{
		Dir:  "data",
		WOFF: true,
	}
}
