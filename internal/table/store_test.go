package table

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileStore_LoadByNormalizedName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dbo_Device.csv", "\xEF\xBB\xBFDeviceID,Name\n1,A\n2,B\n")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, ".tmp_csv_123", "ignored")

	s := NewFileStore(dir, true)
	ctx := context.Background()

	tbl, err := s.Load(ctx, "DEVICE")
	require.NoError(t, err)
	assert.Equal(t, "Device", tbl.Name)
	assert.Equal(t, []string{"DeviceID", "Name"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1", "A"}, {"2", "B"}}, tbl.Rows)

	names, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Device"}, names)
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(t.TempDir(), false)

	_, err := s.Load(context.Background(), "Device")
	require.Error(t, err)

	var ioErr *IoError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "Device", ioErr.Table)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Device.csv", "")

	_, err := NewFileStore(dir, false).Load(context.Background(), "Device")
	var ioErr *IoError
	assert.True(t, errors.As(err, &ioErr))
}

func TestFileStore_LoadRaggedRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Device.csv", "DeviceID,Name\n1,A,extra\n2,B\n")
	writeFile(t, dir, "DevicePort.csv", "PortID,DeviceID\n1\n2,1\n")
	s := NewFileStore(dir, false)

	_, err := s.Load(context.Background(), "Device")
	var ioErr *IoError
	require.True(t, errors.As(err, &ioErr), "a row longer than the header is an I/O error")
	assert.Contains(t, err.Error(), "row 1 has 3 fields")

	got, err := s.Load(context.Background(), "DevicePort")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", ""}, {"2", "1"}}, got.Rows, "short rows are padded")
}

func TestFileStore_ReplaceKeepsFileName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dbo.DevicePort.csv", "PortID,DeviceID\n1,1\n")

	s := NewFileStore(dir, true)
	ctx := context.Background()

	tbl, err := s.Load(ctx, "DevicePort")
	require.NoError(t, err)
	tbl.Append(map[string]string{"PortID": "2", "DeviceID": "1"})
	require.NoError(t, s.Replace(ctx, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFPortID,DeviceID\n1,1\n2,1\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ReplaceNewTable(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, false)

	tbl := New("Site", []string{"SiteID"}, [][]string{{"1"}})
	require.NoError(t, s.Replace(context.Background(), tbl))

	data, err := os.ReadFile(filepath.Join(dir, "Site.csv"))
	require.NoError(t, err)
	assert.Equal(t, "SiteID\n1\n", string(data))
}

func TestFileStore_RoundTripIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	original := "\xEF\xBB\xBFDeviceID,Name,Note\n1,A,\"x, y\"\n2,B,\n"
	path := writeFile(t, dir, "Device.csv", original)

	s := NewFileStore(dir, true)
	ctx := context.Background()
	tbl, err := s.Load(ctx, "Device")
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(New("Device", []string{"DeviceID"}, [][]string{{"1"}}))

	tbl, err := s.Load(ctx, "dbo.device")
	require.NoError(t, err)
	tbl.Rows[0][0] = "changed"

	again, err := s.Load(ctx, "Device")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Rows[0][0], "loaded tables must be copies")

	boom := errors.New("disk full")
	s.FailWrites("Device", boom)
	err = s.Replace(ctx, tbl)

	var wErr *WriteError
	require.True(t, errors.As(err, &wErr))
	assert.Equal(t, "Device", wErr.Table)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Writes())

	_, err = s.Load(ctx, "Missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}
