package extract

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsanders11/tarfs/tarparse"
)

func buildTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: e.typeflag,
			Linkname: e.linkname,
			Size:     int64(len(e.body)),
			Mode:     e.mode,
			ModTime:  time.Now(),
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0o644
			if e.typeflag == tar.TypeDir {
				hdr.Mode = 0o755
			}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if len(e.body) > 0 {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

type tarEntry struct {
	name     string
	typeflag byte
	linkname string
	body     string
	mode     int64
}

func extractInto(t *testing.T, dir string, data []byte, configure func(*Options)) error {
	t.Helper()
	opt := Options{Cwd: dir, Sync: true}
	if configure != nil {
		configure(&opt)
	}
	x, err := New(opt)
	require.NoError(t, err)
	return x.Run(tarparse.New(bytes.NewReader(data)))
}

// S1: simple tree of files and directories lands where expected.
func TestSimpleTree(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "a/", typeflag: tar.TypeDir},
		{name: "a/b.txt", typeflag: tar.TypeReg, body: "hello"},
	})

	require.NoError(t, extractInto(t, dir, data, nil))

	got, err := os.ReadFile(filepath.Join(dir, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	info, err := os.Stat(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// S2: an absolute path is stripped down to the extraction root.
func TestAbsolutePathStripped(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "/etc/passwd", typeflag: tar.TypeReg, body: "root:x:0:0"},
	})

	var warnings []Warning
	require.NoError(t, extractInto(t, dir, data, func(o *Options) {
		o.OnWarn = func(w Warning) { warnings = append(warnings, w) }
	}))

	got, err := os.ReadFile(filepath.Join(dir, "etc", "passwd"))
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:0", string(got))

	foundInfo := false
	for _, w := range warnings {
		if w.Code == "ENTRY_INFO" {
			foundInfo = true
		}
	}
	assert.True(t, foundInfo, "expected an ENTRY_INFO warning about the stripped prefix")
}

// S3: a ".." segment is rejected, and the file never lands on disk.
func TestTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "../../etc/passwd", typeflag: tar.TypeReg, body: "oops"},
	})

	var warnings []Warning
	require.NoError(t, extractInto(t, dir, data, func(o *Options) {
		o.OnWarn = func(w Warning) { warnings = append(warnings, w) }
	}))

	require.Len(t, warnings, 1)
	assert.Equal(t, "ENTRY_ERROR", warnings[0].Code)

	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "etc", "passwd"))
	assert.True(t, os.IsNotExist(err))
}

// S4: a hard link can target a file that was just extracted.
func TestHardLinkAfterFile(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "original.txt", typeflag: tar.TypeReg, body: "payload"},
		{name: "alias.txt", typeflag: tar.TypeLink, linkname: "original.txt"},
	})

	require.NoError(t, extractInto(t, dir, data, nil))

	got, err := os.ReadFile(filepath.Join(dir, "alias.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	origInfo, err := os.Stat(filepath.Join(dir, "original.txt"))
	require.NoError(t, err)
	aliasInfo, err := os.Stat(filepath.Join(dir, "alias.txt"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(origInfo, aliasInfo))
}

// S5: MaxDepth rejects a path deeper than the configured cap.
func TestMaxDepthCap(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "a/b/c/d.txt", typeflag: tar.TypeReg, body: "x"},
	})

	var warnings []Warning
	require.NoError(t, extractInto(t, dir, data, func(o *Options) {
		o.MaxDepth = 2
		o.OnWarn = func(w Warning) { warnings = append(warnings, w) }
	}))

	require.Len(t, warnings, 1)
	assert.Equal(t, "ENTRY_ERROR", warnings[0].Code)
	_, err := os.Stat(filepath.Join(dir, "a", "b", "c", "d.txt"))
	assert.True(t, os.IsNotExist(err))
}

// S6: an entry wanting a directory where a file already exists
// replaces it.
func TestDirectoryReplacesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node"), []byte("leftover"), 0o644))

	data := buildTar(t, []tarEntry{
		{name: "node/", typeflag: tar.TypeDir},
	})

	require.NoError(t, extractInto(t, dir, data, nil))

	info, err := os.Stat(filepath.Join(dir, "node"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// Strip removing the whole path is rejected rather than resolving to
// the extraction root.
func TestStripExceedsDepth(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "a/b.txt", typeflag: tar.TypeReg, body: "x"},
	})

	var warnings []Warning
	require.NoError(t, extractInto(t, dir, data, func(o *Options) {
		o.Strip = 5
		o.OnWarn = func(w Warning) { warnings = append(warnings, w) }
	}))

	require.Len(t, warnings, 1)
	assert.Equal(t, "ENTRY_ERROR", warnings[0].Code)
}

// An absolute path equal to the extraction root itself, for a
// non-directory entry, is silently skipped (no warning, no write).
func TestAbsoluteEqualsRootSkipped(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Base(dir)
	data := buildTar(t, []tarEntry{
		{name: "/" + base, typeflag: tar.TypeReg, body: "x"},
	})

	require.NoError(t, extractInto(t, filepath.Dir(dir), data, nil))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "root directory must survive untouched")
}

// Keep causes an existing target to be left alone even though the
// archive has newer content for it.
func TestKeepOption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("old"), 0o644))

	data := buildTar(t, []tarEntry{
		{name: "f.txt", typeflag: tar.TypeReg, body: "new"},
	})

	require.NoError(t, extractInto(t, dir, data, func(o *Options) { o.Keep = true }))

	got, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

// Newer skips an entry whose on-disk mtime is after the archive's.
func TestNewerOption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:    "f.txt",
		Size:    3,
		Mode:    0o644,
		ModTime: time.Now(),
	}))
	_, err := tw.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	require.NoError(t, extractInto(t, dir, buf.Bytes(), func(o *Options) { o.Newer = true }))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

// The lifecycle hooks fire exactly once, in order, after extraction.
func TestLifecycleHooks(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "a.txt", typeflag: tar.TypeReg, body: "x"},
	})

	var order []string
	opt := Options{
		Cwd:         dir,
		Sync:        true,
		OnPreFinish: func() { order = append(order, "pre") },
		OnFinish:    func() { order = append(order, "finish") },
		OnEnd:       func() { order = append(order, "end") },
	}
	x, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, x.Run(tarparse.New(bytes.NewReader(data))))

	assert.Equal(t, []string{"pre", "finish", "end"}, order)
}

// The default parallel-async profile (Sync unset) produces the same
// tree as the sequential-sync profile, and Run does not return until
// every reservation the async scheduler dispatched has actually
// finished its filesystem work.
func TestAsyncProfileExtractsSimpleTree(t *testing.T) {
	dir := t.TempDir()
	var entries []tarEntry
	for i := 0; i < 26; i++ {
		entries = append(entries, tarEntry{
			name:     "many/dir" + string(rune('a'+i)) + "/f.txt",
			typeflag: tar.TypeReg,
			body:     "x",
		})
	}
	data := buildTar(t, entries)

	opt := Options{Cwd: dir, Concurrency: 4}
	x, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, x.Run(tarparse.New(bytes.NewReader(data))))

	for i := 0; i < 26; i++ {
		path := filepath.Join(dir, "many", "dir"+string(rune('a'+i)), "f.txt")
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "x", string(got))
	}
}

// PreservePaths leaves ".." segments alone but the defense-in-depth
// escape check still rejects anything that resolves outside cwd.
func TestPreservePathsStillBlocksEscape(t *testing.T) {
	dir := t.TempDir()
	data := buildTar(t, []tarEntry{
		{name: "../escaped.txt", typeflag: tar.TypeReg, body: "x"},
	})

	var warnings []Warning
	require.NoError(t, extractInto(t, dir, data, func(o *Options) {
		o.PreservePaths = true
		o.OnWarn = func(w Warning) { warnings = append(warnings, w) }
	}))

	require.Len(t, warnings, 1)
	assert.Equal(t, "ENTRY_ERROR", warnings[0].Code)
}
