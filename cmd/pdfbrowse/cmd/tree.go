package cmd

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsawler/pdfbrowse/checksum"
	"github.com/tsawler/pdfbrowse/pngenc"
	"github.com/tsawler/pdfbrowse/visitor"
	"github.com/tsawler/pdfbrowse/walker"
)

func newTreeCmd(opts *rootOpts) *cobra.Command {
	treeCmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Render the object graph as a collapsible HTML tree",
		Long: `Render the object graph as a standalone HTML page of nested lists.
Branches are walked when expanded; --expand opens that many levels before
rendering. Stream contents link their decoded bytes, their raw bytes and,
for Flate-compressed gray or RGB images, a PNG.`,
		Example: `pdfbrowse tree report.pdf -o report.html --expand 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			r, root, err := opts.openDocument(cmd, args[0])
			if err != nil {
				return err
			}

			ch := checksum.NewChannel(checksum.WithWorkers(opts.v.GetInt(keyWorkers)))
			defer ch.Close()

			tree := visitor.NewTree(r, visitor.WithEncoder(pngenc.New(ch)))
			if err := walker.New(r).Walk(ctx, root, tree); err != nil {
				return err
			}
			if err := tree.ExpandLevels(ctx, opts.v.GetInt(keyExpand)); err != nil {
				if !errors.Is(err, walker.ErrMaxDepth) {
					return err
				}
				logrus.Warnf("stopped expanding: %v", err)
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
			return tree.Render(w)
		},
	}
	treeCmd.Flags().Int(keyExpand, 1, "number of levels to expand before rendering")
	_ = opts.v.BindPFlag(keyExpand, treeCmd.Flags().Lookup(keyExpand))
	return treeCmd
}
