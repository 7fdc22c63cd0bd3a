package uri_test

import (
	"testing"

	"github.com/glehmann/earthlyls/internal/uri"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestFromPath(t *testing.T) {
	assert.Equal(t, "file:///ws/a/Earthfile", uri.FromPath("/ws/a/../a/Earthfile"))
	assert.Equal(t, "file:///ws/my%20dir/Earthfile", uri.FromPath("/ws/my dir/Earthfile"))
}

func TestToPath(t *testing.T) {
	p, err := uri.ToPath("file:///ws/my%20dir/Earthfile")
	require.NoError(t, err)
	assert.Equal(t, "/ws/my dir/Earthfile", p)

	for _, u := range []string{"https://example.com/Earthfile", "untitled:Earthfile", "%zz"} {
		_, err := uri.ToPath(u)
		assert.True(t, errors.Is(err, uri.ErrInvalidURI), u)
	}
}
