// Package uri converts between file system paths and document URIs.
package uri

import (
	"net/url"
	"path/filepath"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidURI is returned for URIs that do not denote a local file.
var ErrInvalidURI = errors.Base("invalid file uri")

// FromPath returns the file URI of an absolute path.
func FromPath(path string) protocol.DocumentUri {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Clean(path)),
	}
	return protocol.DocumentUri(u.String())
}

// ToPath returns the slash separated path of a file URI.
func ToPath(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.WithDetails(ErrInvalidURI, "uri", uri, "error", err.Error())
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", errors.WithDetails(ErrInvalidURI, "uri", uri)
	}
	return u.Path, nil
}
