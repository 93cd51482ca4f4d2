package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/mush/core/pipeline"
)

// printBuiltins writes the names of the commands the shell runs itself.
func printBuiltins(w io.Writer) error {
	for _, name := range pipeline.ListBuiltins() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
