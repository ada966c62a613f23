package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

var outputWriter io.Writer = os.Stdout

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(outputWriter)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
