package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/glehmann/earthlyls/internal/config"
	"github.com/glehmann/earthlyls/internal/diagnostic"
	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/uri"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

func newCheckCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "print the diagnostics of every Earthfile under dir",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a JSON configuration file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return errors.WithStack(err)
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		problems, err := check(afero.NewOsFs(), cmd.OutOrStdout(), dir, cfg)
		if err != nil {
			return err
		}
		if problems > 0 {
			return errors.Errorf("found %d problems", problems)
		}
		return nil
	}
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Config{}, errors.WithStack(err)
	}
	defer f.Close()
	return config.LoadFromJSON(f)
}

// check scans root and writes one line per diagnostic. It returns the
// number of diagnostics written.
func check(fsys afero.Fs, out io.Writer, root string, cfg config.Config) (int, error) {
	m, err := manager.New(fsys, cfg)
	if err != nil {
		return 0, err
	}
	defer m.Shutdown()

	m.SetRoots([]manager.Root{{Name: "check", Path: root}})
	problems := 0
	for _, u := range m.Scan() {
		var diagnostics []protocol.Diagnostic
		err := m.Documents.With(u, func(d *document.Document) error {
			ds, err := diagnostic.Compute(d, cfg.DisabledDiagnostics)
			diagnostics = ds
			return err
		})
		if err != nil {
			return problems, errors.WithDetails(err, "uri", u)
		}
		p, err := uri.ToPath(u)
		if err != nil {
			return problems, err
		}
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		for _, d := range diagnostics {
			fmt.Fprintf(out, "%s:%d:%d: %s: %s\n",
				p, d.Range.Start.Line+1, d.Range.Start.Character+1, severity(d.Severity), d.Message)
			problems++
		}
	}
	return problems, nil
}

func severity(s *protocol.DiagnosticSeverity) string {
	if s == nil {
		return "error"
	}
	switch *s {
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	default:
		return "error"
	}
}
