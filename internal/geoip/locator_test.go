package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmptyPathDisables(t *testing.T) {
	l, err := Open("  ")
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = l.Locate("8.8.8.8")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, l.Close())
}

func TestOpenMissingOrCorruptFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.mmdb"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.mmdb")
	require.NoError(t, os.WriteFile(bad, []byte("not a database"), 0o644))
	_, err = Open(bad)
	assert.Error(t, err)
}

func TestZeroLocatorIsUnavailable(t *testing.T) {
	var l Locator
	_, err := l.Locate("1.1.1.1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
