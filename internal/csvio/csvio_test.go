package csvio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name          string
		input         []byte
		expected      string
		wantBOM       bool
		wantSanitized bool
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("DeviceID,Name")...),
			expected: "DeviceID,Name",
			wantBOM:  true,
		},
		{
			name:     "file without BOM",
			input:    []byte("DeviceID,Name"),
			expected: "DeviceID,Name",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
			wantBOM:  true,
		},
		{
			name:     "partial BOM is kept",
			input:    []byte{0xEF, 0xBB, 'a'},
			expected: "\uFFFDa",
			// 0xEF 0xBB is an incomplete sequence and gets replaced.
			wantSanitized: true,
		},
		{
			name:          "invalid byte replaced",
			input:         []byte{'h', 'e', 0x80, 'l', 'o'},
			expected:      "he\uFFFDlo",
			wantSanitized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := Decode(tt.input)
			if string(got) != tt.expected {
				t.Errorf("Decode() = %q, want %q", string(got), tt.expected)
			}
			if info.HadBOM != tt.wantBOM {
				t.Errorf("HadBOM = %v, want %v", info.HadBOM, tt.wantBOM)
			}
			if info.Sanitized != tt.wantSanitized {
				t.Errorf("Sanitized = %v, want %v", info.Sanitized, tt.wantSanitized)
			}
		})
	}
}

func TestReadRecords_RaggedRows(t *testing.T) {
	input := "DeviceID,Name,Status\n1,A\n2,B,up,extra\n"

	records, info, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if info.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", info.RecordCount)
	}
	if len(records[1]) != 2 {
		t.Errorf("short row length = %d, want 2", len(records[1]))
	}
	if len(records[2]) != 4 {
		t.Errorf("long row length = %d, want 4", len(records[2]))
	}
}

func TestWriteRecords_BOM(t *testing.T) {
	var buf bytes.Buffer
	records := [][]string{{"DeviceID", "Name"}, {"1", "A, B"}}

	if err := WriteRecords(&buf, records, true); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	want := "\xEF\xBB\xBFDeviceID,Name\n1,\"A, B\"\n"
	if buf.String() != want {
		t.Errorf("WriteRecords() = %q, want %q", buf.String(), want)
	}

	back, info, err := ReadRecords(&buf)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if !info.HadBOM {
		t.Error("expected BOM to be detected")
	}
	if back[1][1] != "A, B" {
		t.Errorf("quoted cell = %q, want %q", back[1][1], "A, B")
	}
}

func TestReplaceFile_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Device.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := ReplaceFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	})
	if err != nil {
		t.Fatalf("ReplaceFile() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("file content = %q, want %q", got, "new")
	}
	assertNoTempFiles(t, dir)
}

func TestReplaceFile_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Device.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("disk full")
	err := ReplaceFile(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ReplaceFile() error = %v, want %v", err, boom)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "old" {
		t.Errorf("file content = %q, want original %q", got, "old")
	}
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempPrefix) {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}
