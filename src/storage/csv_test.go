package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{Index: 0, Identifier: 127_773, Whole: 9_999_986_793},
		{Index: 1, Identifier: 123_456_789, Whole: 2_184_182_969},
		{Index: 2, Identifier: 1, Whole: 78_263},
		{Index: 3, Identifier: 9, Whole: 0},
	}
}

func TestWriteThenRead(t *testing.T) {
	for _, includeWhole := range []bool{false, true} {
		fs := afero.NewMemMapFs()
		sink := NewCSVSink(fs)
		path := filepath.Join("data", "reference", "out.csv.gz")

		require.NoError(t, sink.Write(path, "run", sampleRows(), includeWhole))

		ds, err := sink.Read(path)
		require.NoError(t, err)
		assert.Equal(t, Columns(includeWhole), ds.Columns)
		assert.Equal(t, sampleRows(), ds.Rows)

		_, err = fs.Stat(TempPath(path, "run"))
		assert.True(t, os.IsNotExist(err), "temporary file must be gone")
	}
}

func TestAppendLRand(t *testing.T) {
	tests := []struct {
		whole int64
		want  string
	}{
		{2_184_182_969, "0.2184182969"},
		{78_263, "0.0000078263"},
		{9_999_908_530, "0.9999908530"},
		{0, "0.0000000000"},
	}

	for _, tt := range tests {
		got := string(AppendLRand(nil, tt.whole))
		assert.Equal(t, tt.want, got)

		back, err := ParseLRand(got)
		require.NoError(t, err)
		assert.Equal(t, tt.whole, back)
	}

	for _, bad := range []string{"1.0000000000", "0.123", "0.12345678901", "0.-123456789", ""} {
		_, err := ParseLRand(bad)
		assert.ErrorIs(t, err, ErrCorruptRow, bad)
	}
}

type failingFs struct {
	afero.Fs
}

func (f failingFs) Rename(string, string) error {
	return errors.New("rename refused")
}

func TestFailedWriteLeavesNothingBehind(t *testing.T) {
	mem := afero.NewMemMapFs()
	sink := NewCSVSink(failingFs{Fs: mem})

	err := sink.Write("out/data.csv.gz", "abc", sampleRows(), false)
	require.Error(t, err)

	_, err = mem.Stat("out/data.csv.gz")
	assert.True(t, os.IsNotExist(err))
	_, err = mem.Stat(TempPath("out/data.csv.gz", "abc"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteReplacesExistingDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewCSVSink(fs)

	require.NoError(t, sink.Write("out.csv.gz", "1", sampleRows(), true))
	require.NoError(t, sink.Write("out.csv.gz", "2", sampleRows()[:1], true))

	ds, err := sink.Read("out.csv.gz")
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 1)
}

func TestScanStopsOnCallbackError(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewCSVSink(fs)
	require.NoError(t, sink.Write("out.csv.gz", "1", sampleRows(), false))

	stop := errors.New("stop")
	seen := 0
	_, err := sink.Scan("out.csv.gz", func(Row) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestReadRejectsForeignFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewCSVSink(fs)

	require.NoError(t, afero.WriteFile(fs, "plain.csv", []byte("a,b\n1,2\n"), 0o644))
	_, err := sink.Read("plain.csv")
	assert.Error(t, err)

	_, err = sink.Read("missing.csv.gz")
	assert.Error(t, err)
}
