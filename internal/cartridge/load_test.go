package cartridge

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	rom := makeROM(t, "PACKED", TypeROMOnly)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(rom); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(rom); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	if _, err := zw.Create("roms/"); err != nil {
		t.Fatal(err)
	}
	w, err := zw.Create("roms/packed.gb")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(rom); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"packed.gb", rom},
		{"packed.gb.gz", gz.Bytes()},
		{"packed.gb.xz", xzBuf.Bytes()},
		{"packed.zip", zipBuf.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFile(writeFile(t, tt.name, tt.data))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if !bytes.Equal(got, rom) {
				t.Errorf("LoadFile() returned %d bytes, want the original %d", len(got), len(rom))
			}
		})
	}
}

func TestLoadFileEmptyZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(writeFile(t, "empty.zip", buf.Bytes()))
	if !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("LoadFile() error = %v, want ErrEmptyArchive", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.gb"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile() error = %v, want os.ErrNotExist", err)
	}
}
