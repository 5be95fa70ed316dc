package tarparse

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsanders11/tarfs/entry"
)

func TestNextYieldsEntriesThenEOF(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "a.txt", Typeflag: tar.TypeReg, Size: 5, Mode: 0o644, ModTime: time.Now(),
	}))
	_, err := tw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	p := New(&buf)
	e, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, entry.KindFile, e.Kind)
	assert.Equal(t, "a.txt", e.Path)

	body, err := io.ReadAll(e.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNextReportsBadArchive(t *testing.T) {
	p := New(bytes.NewReader([]byte("not a tar stream at all, much too short")))
	_, err := p.Next()
	require.Error(t, err)
	var unrec *entry.UnrecoverableError
	require.ErrorAs(t, err, &unrec)
	assert.Equal(t, "BAD_ARCHIVE", unrec.Code)
}

func TestGNUDumpDirMapsToKindGNUDumpDir(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "snapshot/", Typeflag: 'D', ModTime: time.Now(),
	}))
	require.NoError(t, tw.Close())

	p := New(&buf)
	e, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, entry.KindGNUDumpDir, e.Kind)
	assert.True(t, e.Kind.IsDirectoryLike())
}

func TestSymlinkEntryCarriesLinkname(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "link", Typeflag: tar.TypeSymlink, Linkname: "target", ModTime: time.Now(),
	}))
	require.NoError(t, tw.Close())

	p := New(&buf)
	e, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, entry.KindSymbolicLink, e.Kind)
	assert.Equal(t, "target", e.LinkPath)
}
