package cmd

import (
	"log/slog"

	"github.com/cottand/rootcause/internal/fixture"
	"github.com/cottand/rootcause/internal/log"
	"github.com/cottand/rootcause/saturate"
	"github.com/spf13/cobra"
)

var logger = log.DefaultLogger.With("section", "cli")

type commonFlags struct {
	logLevel *int
	verify   *bool
}

func addCommonFlags(cmd *cobra.Command) *commonFlags {
	return &commonFlags{
		logLevel: cmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level"),
		verify:   cmd.Flags().Bool("verify", false, "check the consistency of the saturation tables (slow)"),
	}
}

// load sets up logging and reads the fixture at path
func (f *commonFlags) load(path string) (*fixture.Fixture, saturate.Options, error) {
	log.SetLevel(slog.Level(*f.logLevel))
	opts := saturate.DefaultOptions()
	opts.Verify = *f.verify

	fx, err := fixture.Load(path)
	if err != nil {
		return nil, opts, err
	}
	logger.Info("loaded fixture", "path", path, "verify", opts.Verify)
	return fx, opts, nil
}
