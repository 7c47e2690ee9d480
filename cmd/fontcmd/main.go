package main

import (
	"log"
	"os"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/tdewolff/argp"
)

var (
	Error   *log.Logger
	Warning *log.Logger
)

func main() {
	Error = log.New(os.Stderr, "ERROR: ", 0)
	Warning = log.New(os.Stderr, "WARNING: ", 0)

	// the collection package traces with key 'font.collection'
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":       "go",
		"trace.font.collection": "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		Error.Println("configure tracing:", err)
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	cmd := argp.New("Command line toolkit for TTF, OTF, WOFF, WOFF2 and EOT files")
	cmd.AddCmd(&Info{}, "info", "Get font info")
	cmd.AddCmd(&Draw{}, "draw", "Draw a glyph in terminal or output to image")
	cmd.AddCmd(&List{}, "list", "List font families in a directory or of the system")
	cmd.AddCmd(&Match{}, "match", "Find the font that best matches a family and subfamily")
	cmd.Parse()
}

// verbose traces the font collection on debug level.
func verbose() {
	tracing.Select("font.collection").SetTraceLevel(tracing.LevelDebug)
}
