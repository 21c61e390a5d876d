// Package cmd implements the pdfbrowse command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/pdfbrowse/reader"
	"github.com/tsawler/pdfbrowse/walker"
)

// Configuration keys, shared by flags, environment and config file
const (
	keyRoot    = "root"
	keyDebug   = "debug"
	keyExpand  = "expand"
	keyOutput  = "output"
	keyDir     = "dir"
	keyWorkers = "workers"
)

const envPrefix = "PDFBROWSE"

type rootOpts struct {
	cfgFile string
	v       *viper.Viper
}

var longRootCmdDescription = `pdfbrowse walks the object graph of a PDF file starting at the trailer
or at any indirect object, following references up to a fixed depth.
It prints the graph as indented text, renders it as a collapsible HTML
tree, or exports every reachable stream to a content-addressed directory.
`

// NewRootCmd returns the pdfbrowse command with all subcommands attached
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "pdfbrowse",
		Short:         "Browse the object graph of a PDF file.",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.initConfig(); err != nil {
				return err
			}
			opts.initLogger(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.pdfbrowse.yaml)")
	flags.BoolP(keyDebug, "d", false, "turn on debug logging")
	flags.String(keyRoot, "trailer", `object to start from: "trailer" or "num,gen"`)
	flags.StringP(keyOutput, "o", "", "write output to this file instead of stdout")
	flags.Int(keyWorkers, 0, "checksum workers (default is the number of CPUs)")
	for _, key := range []string{keyDebug, keyRoot, keyOutput, keyWorkers} {
		_ = opts.v.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(
		newPrintCmd(opts),
		newTreeCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("pdfbrowse: %v", err)
		os.Exit(1)
	}
}

// initConfig reads the config file and environment variables
func (o *rootOpts) initConfig() error {
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", o.cfgFile, err)
		}
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	o.v.AddConfigPath(home)
	o.v.SetConfigName(".pdfbrowse")
	o.v.SetConfigType("yaml")
	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (o *rootOpts) initLogger(w io.Writer) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if o.v.GetBool(keyDebug) {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func (o *rootOpts) rootSelector() (walker.RootSelector, error) {
	return walker.ParseRootSelector(o.v.GetString(keyRoot))
}

// openDocument opens a PDF file and builds the node for the configured root
func (o *rootOpts) openDocument(cmd *cobra.Command, path string) (*reader.Reader, walker.Node, error) {
	sel, err := o.rootSelector()
	if err != nil {
		return nil, walker.Node{}, err
	}
	r, err := openReader(path)
	if err != nil {
		return nil, walker.Node{}, err
	}
	root, err := walker.NewRoot(cmd.Context(), r, sel)
	if err != nil {
		return nil, walker.Node{}, err
	}
	logrus.Debugf("root %s", sel)
	return r, root, nil
}

func openReader(path string) (*reader.Reader, error) {
	r, err := reader.Open(path, reader.WithLogger(logrus.WithField("file", filepath.Base(path))))
	if err != nil {
		return nil, err
	}
	logrus.Debugf("opened %s (PDF %s, %d objects)", path, r.Version(), r.NumObjects())
	return r, nil
}

// output returns the configured destination and a function closing it
func (o *rootOpts) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path := o.v.GetString(keyOutput)
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
