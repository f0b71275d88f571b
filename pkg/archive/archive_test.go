package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoundTrip(t *testing.T) {
	data, err := Build([]Entry{
		{Name: "001-hooks.txt", Body: []byte("stop scrolling\n")},
		{Name: "002-captions.txt", Body: []byte("new drop\n")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	f, err := zr.File[0].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "001-hooks.txt", zr.File[0].Name)
	assert.Equal(t, "stop scrolling\n", string(body))
}

func TestBuildEmpty(t *testing.T) {
	data, err := Build(nil)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
