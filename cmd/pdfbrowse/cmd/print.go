package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdfbrowse/visitor"
	"github.com/tsawler/pdfbrowse/walker"
)

func newPrintCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "print FILE",
		Short: "Print the object graph as indented text",
		Long: `Print every object reachable from the root, one per line, indented by
depth. An indirect object is expanded the first time it is reached; later
references to it are printed but not expanded again.`,
		Example: `pdfbrowse print report.pdf
pdfbrowse print report.pdf --root 12,0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, root, err := opts.openDocument(cmd, args[0])
			if err != nil {
				return err
			}
			w, closeOutput, err := opts.output(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeOutput(); err == nil {
					err = cerr
				}
			}()

			pp := visitor.NewPrettyPrinter(w)
			if err := walker.New(r).Walk(cmd.Context(), root, pp); err != nil {
				return err
			}
			if err := pp.Err(); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
}
