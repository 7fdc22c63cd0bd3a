package diagnostic

import (
	"reflect"
	"sort"
	"sync"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/manager"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("earthlyls.diagnostic")

// Notifier delivers the diagnostics of a document to the client.
type Notifier func(uri protocol.DocumentUri, diagnostics []protocol.Diagnostic)

// Aggregator recomputes diagnostics and publishes those that changed.
type Aggregator struct {
	docs     *manager.DocumentSet
	notify   Notifier
	workers  int
	disabled []string
}

func NewAggregator(docs *manager.DocumentSet, notify Notifier, workers int, disabled []string) *Aggregator {
	return &Aggregator{
		docs:     docs,
		notify:   notify,
		workers:  max(workers, 1),
		disabled: disabled,
	}
}

type update struct {
	uri         protocol.DocumentUri
	diagnostics []protocol.Diagnostic
}

// Publish recomputes the diagnostics of uris. Documents whose diagnostics
// changed are notified once every document lock has been released, in URI
// order. Unknown URIs are ignored. A document whose analyses fail keeps its
// last published diagnostics and the failure is returned.
func (a *Aggregator) Publish(uris ...protocol.DocumentUri) error {
	var (
		mu      sync.Mutex
		updates []update
		errs    error
		g       errgroup.Group
	)
	g.SetLimit(a.workers)
	for _, uri := range uris {
		g.Go(func() error {
			err := a.docs.With(uri, func(d *document.Document) error {
				ds, err := Compute(d, a.disabled)
				if err != nil {
					return err
				}
				if equal(ds, d.Diagnostics) {
					return nil
				}
				d.Diagnostics = ds
				mu.Lock()
				updates = append(updates, update{uri: uri, diagnostics: ds})
				mu.Unlock()
				return nil
			})
			if err != nil && !errors.Is(err, manager.ErrUnknownDocument) {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(updates, func(i, j int) bool { return updates[i].uri < updates[j].uri })
	for _, u := range updates {
		log.Debug("publishing diagnostics", "uri", u.uri, "count", len(u.diagnostics))
		a.notify(u.uri, u.diagnostics)
	}
	return errs
}

// PublishAll recomputes the diagnostics of every document.
func (a *Aggregator) PublishAll() error {
	return a.Publish(a.docs.URIs()...)
}

// Clear notifies an empty diagnostic list for a document that is gone.
func (a *Aggregator) Clear(uri protocol.DocumentUri) {
	a.notify(uri, []protocol.Diagnostic{})
}

func equal(a, b []protocol.Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
