// scanner is used to find the Earthfiles of a workspace.
package scanner

import (
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("earthlyls.scanner")

type Options struct {
	// Pattern is matched against slash separated paths relative to the root.
	Pattern string
	// IgnoreDirs are directory names never descended into.
	IgnoreDirs []string
	Workers    int
}

// Scan walks the subtree under root. Every file whose relative path matches
// opts.Pattern is read and handed to callback with its absolute path.
// Unreadable files are logged and skipped. callback may be called
// concurrently and Scan only returns once all callbacks have completed.
// It returns the number of files handed to callback.
func Scan(
	fsys afero.Fs,
	root string,
	opts Options,
	callback func(path string, document []byte),
) int {
	workers := max(opts.Workers, 1)
	fileCh := make(chan string, 100)
	var wg sync.WaitGroup
	var count atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				data, err := afero.ReadFile(fsys, path)
				if err != nil {
					log.Warning("read error", "path", path, "error", err)
					continue
				}
				count.Add(1)
				callback(path, data)
			}
		}()
	}

	log.Debug("starting walk", "root", root)
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			log.Warning("walk error", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != root && slices.Contains(opts.IgnoreDirs, info.Name()) {
				log.Debug("skipping directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(opts.Pattern, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if ok {
			fileCh <- path
		}
		return nil
	})
	if err != nil {
		log.Error("walk finished with error", "root", root, "error", err)
	}

	close(fileCh)
	wg.Wait()
	return int(count.Load())
}
