package diagnostic

import (
	"slices"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

// Source is set on every diagnostic.
const Source = "earthlyls"

// Analysis checks one kind of problem in a document.
type Analysis struct {
	Name string
	Run  func(*document.Document) ([]protocol.Diagnostic, error)
}

// Analyses lists every analysis, in the order their results are published.
var Analyses = []Analysis{
	{Name: "deprecated", Run: deprecatedBuildArg},
	{Name: "unknown-option", Run: unknownOption},
	{Name: "syntax", Run: syntaxError},
	{Name: "missing-version", Run: missingVersion},
}

// Compute runs every analysis not listed in disabled and concatenates their
// results. All analyses run even when one fails; the failures are combined
// in the returned error and the diagnostics must then be discarded.
func Compute(d *document.Document, disabled []string) ([]protocol.Diagnostic, error) {
	diagnostics := []protocol.Diagnostic{}
	var errs error
	for _, a := range Analyses {
		if slices.Contains(disabled, a.Name) {
			continue
		}
		ds, err := a.Run(d)
		if err != nil {
			errs = multierr.Append(errs, errors.WithDetails(err, "analysis", a.Name, "uri", d.URI))
			continue
		}
		diagnostics = append(diagnostics, ds...)
	}
	if errs != nil {
		return nil, errs
	}
	return diagnostics, nil
}

func newDiagnostic(r protocol.Range, severity protocol.DiagnosticSeverity, message string) protocol.Diagnostic {
	source := Source
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

func nodeDiagnostics(
	d *document.Document,
	q *parser.Query,
	severity protocol.DiagnosticSeverity,
	message string,
) []protocol.Diagnostic {
	var ds []protocol.Diagnostic
	for _, n := range d.Captures(q) {
		ds = append(ds, newDiagnostic(d.Range(n), severity, message))
	}
	return ds
}

func deprecatedBuildArg(d *document.Document) ([]protocol.Diagnostic, error) {
	return nodeDiagnostics(d, parser.Queries().DeprecatedBuildArgs, protocol.DiagnosticSeverityWarning,
		"--build-arg is deprecated. Use --<build-arg-key>=<build-arg-value> instead."), nil
}

func unknownOption(d *document.Document) ([]protocol.Diagnostic, error) {
	return nodeDiagnostics(d, parser.Queries().UnknownOptions, protocol.DiagnosticSeverityError, "unknown option"), nil
}

func syntaxError(d *document.Document) ([]protocol.Diagnostic, error) {
	return nodeDiagnostics(d, parser.Queries().SyntaxErrors, protocol.DiagnosticSeverityError, "syntax error"), nil
}

func missingVersion(d *document.Document) ([]protocol.Diagnostic, error) {
	for _, n := range d.Captures(parser.Queries().Versions) {
		if isRoot(n.Parent()) {
			return nil, nil
		}
	}
	return []protocol.Diagnostic{
		newDiagnostic(protocol.Range{}, protocol.DiagnosticSeverityError, "no version specified"),
	}, nil
}

func isRoot(n *sitter.Node) bool {
	return n != nil && n.Type() == "source_file"
}
