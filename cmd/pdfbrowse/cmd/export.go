package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsawler/pdfbrowse/checksum"
	"github.com/tsawler/pdfbrowse/export"
	"github.com/tsawler/pdfbrowse/pngenc"
)

const defaultExportDir = "pdfbrowse-export"

func newExportCmd(opts *rootOpts) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export every reachable stream to a directory",
		Long: `Export the raw bytes, the decoded bytes and, for Flate-compressed gray or
RGB images, a PNG of every stream reachable from the root. Files are
named by content identifier so identical streams are stored once, and
manifest.yaml maps each object to its files.`,
		Example: `pdfbrowse export report.pdf --dir ./streams --workers 4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := opts.rootSelector()
			if err != nil {
				return err
			}
			r, err := openReader(args[0])
			if err != nil {
				return err
			}

			store, err := export.NewStore(opts.v.GetString(keyDir))
			if err != nil {
				return err
			}
			workers := opts.v.GetInt(keyWorkers)
			ch := checksum.NewChannel(checksum.WithWorkers(workers))
			defer ch.Close()

			e := export.NewExporter(r, store, pngenc.New(ch), export.WithWorkers(workers))
			m, err := e.Export(cmd.Context(), sel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range m.Streams {
				var forms []string
				for _, f := range []*export.File{rec.Raw, rec.Decoded, rec.PNG} {
					if f != nil {
						forms = append(forms, f.Path)
					}
				}
				fmt.Fprintf(out, "%s\t%s\n", rec.Object, strings.Join(forms, " "))
				for _, msg := range rec.Errors {
					logrus.Warnf("object %s: %s", rec.Object, msg)
				}
			}
			return nil
		},
	}
	exportCmd.Flags().String(keyDir, defaultExportDir, "directory to export streams into")
	_ = opts.v.BindPFlag(keyDir, exportCmd.Flags().Lookup(keyDir))
	return exportCmd
}
