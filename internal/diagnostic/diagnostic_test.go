package diagnostic

import (
	"sync"
	"testing"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

var parsers = parser.NewParsers(2)

type recorder struct {
	mu    sync.Mutex
	calls []update
}

func (r *recorder) notify(uri protocol.DocumentUri, ds []protocol.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, update{uri: uri, diagnostics: ds})
}

func (r *recorder) take() []update {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls
	r.calls = nil
	return calls
}

func newDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	d, err := document.New(parsers, "file:///ws/Earthfile", text)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func messages(ds []protocol.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Message)
	}
	return out
}

func TestCompute(t *testing.T) {
	t.Run("clean document", func(t *testing.T) {
		ds, err := Compute(newDoc(t, "VERSION 0.8\nFROM alpine\n"), nil)
		require.NoError(t, err)
		assert.NotNil(t, ds)
		assert.Empty(t, ds)
	})

	t.Run("missing version", func(t *testing.T) {
		ds, err := Compute(newDoc(t, "FROM alpine\n"), nil)
		require.NoError(t, err)
		require.Len(t, ds, 1)
		assert.Equal(t, "no version specified", ds[0].Message)
		assert.Equal(t, protocol.Range{}, ds[0].Range)
		assert.Equal(t, protocol.DiagnosticSeverityError, *ds[0].Severity)
		assert.Equal(t, Source, *ds[0].Source)
	})

	t.Run("disabled analysis", func(t *testing.T) {
		ds, err := Compute(newDoc(t, "FROM alpine\n"), []string{"missing-version"})
		require.NoError(t, err)
		assert.Empty(t, ds)
	})

	t.Run("syntax error", func(t *testing.T) {
		ds, err := Compute(newDoc(t, "VERSION 0.8\nbuild:\n    FROM alpine\n    %%% !!!\n"), nil)
		require.NoError(t, err)
		assert.Contains(t, messages(ds), "syntax error")
	})

	t.Run("failing analysis", func(t *testing.T) {
		saved := Analyses
		t.Cleanup(func() { Analyses = saved })
		boom := errors.New("boom")
		Analyses = append([]Analysis{{Name: "boom", Run: func(*document.Document) ([]protocol.Diagnostic, error) {
			return nil, boom
		}}}, saved...)

		ds, err := Compute(newDoc(t, "FROM alpine\n"), nil)
		assert.Nil(t, ds)
		assert.True(t, errors.Is(err, boom))
	})
}

func TestAggregator(t *testing.T) {
	const (
		good = "file:///ws/good/Earthfile"
		bad  = "file:///ws/bad/Earthfile"
	)
	set := manager.NewDocumentSet()
	defer set.Close()
	for uri, text := range map[protocol.DocumentUri]string{
		good: "VERSION 0.8\nFROM alpine\n",
		bad:  "FROM alpine\n",
	} {
		require.NoError(t, set.Upsert(uri, func() (*document.Document, error) {
			return document.New(parsers, uri, text)
		}, nil))
	}

	rec := &recorder{}
	agg := NewAggregator(set, rec.notify, 2, nil)

	require.NoError(t, agg.PublishAll())
	calls := rec.take()
	require.Len(t, calls, 1)
	assert.Equal(t, protocol.DocumentUri(bad), calls[0].uri)
	assert.Equal(t, []string{"no version specified"}, messages(calls[0].diagnostics))

	t.Run("unchanged diagnostics are not republished", func(t *testing.T) {
		require.NoError(t, agg.PublishAll())
		assert.Empty(t, rec.take())
	})

	t.Run("fixed document publishes an empty list", func(t *testing.T) {
		require.NoError(t, set.With(bad, func(d *document.Document) error {
			return d.ApplyEdit(protocol.Range{}, "VERSION 0.8\n")
		}))
		require.NoError(t, agg.Publish(bad, "file:///ws/unknown/Earthfile"))
		calls := rec.take()
		require.Len(t, calls, 1)
		assert.Equal(t, protocol.DocumentUri(bad), calls[0].uri)
		assert.NotNil(t, calls[0].diagnostics)
		assert.Empty(t, calls[0].diagnostics)
	})

	t.Run("failure keeps the last published diagnostics", func(t *testing.T) {
		require.NoError(t, set.With(good, func(d *document.Document) error {
			return d.ApplyFullText("FROM alpine\n")
		}))
		saved := Analyses
		t.Cleanup(func() { Analyses = saved })
		Analyses = append([]Analysis{{Name: "boom", Run: func(*document.Document) ([]protocol.Diagnostic, error) {
			return nil, errors.New("boom")
		}}}, saved...)

		assert.Error(t, agg.PublishAll())
		assert.Empty(t, rec.take())
		require.NoError(t, set.With(good, func(d *document.Document) error {
			assert.Empty(t, d.Diagnostics)
			return nil
		}))

		Analyses = saved
		require.NoError(t, agg.PublishAll())
		calls := rec.take()
		require.Len(t, calls, 1)
		assert.Equal(t, protocol.DocumentUri(good), calls[0].uri)
	})

	t.Run("clear", func(t *testing.T) {
		agg.Clear(good)
		calls := rec.take()
		require.Len(t, calls, 1)
		assert.Empty(t, calls[0].diagnostics)
	})
}
