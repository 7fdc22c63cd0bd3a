package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/glehmann/earthlyls/internal/server"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gitlab.com/tozd/go/errors"
)

// Version will be set during the build process using ldflags
var Version = ""

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type options struct {
	logfile   string
	verbosity int
}

func run() error {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "earthlyls",
		Short:         "A language server for Earthfiles",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configureLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("Starting earthlyls...")
			return server.New(afero.NewOsFs(), cmd.Root().Version).RunStdio()
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logfile, "logfile", "", "path to log file")
	rootCmd.PersistentFlags().IntVarP(&opts.verbosity, "verbosity", "v", 1, "log verbosity (0 disables logging)")

	rootCmd.AddCommand(newCheckCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}
	return nil
}

func version() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(dev) v0.0.0"
	}
	return info.Main.Version
}

// configureLogging sends the standard logger and commonlog to the log file.
// Without a log file, both write to stderr, stdout being the protocol stream.
func (o *options) configureLogging() error {
	if o.logfile == "" {
		log.SetOutput(os.Stderr)
		commonlog.Configure(o.verbosity, nil)
		return nil
	}
	logFile, err := os.OpenFile(o.logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
	if err != nil {
		return errors.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	commonlog.Configure(o.verbosity, &o.logfile)
	return nil
}
