package placeholder

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ManifestEntry is the archive path of the manifest.
const ManifestEntry = "META-INF/MANIFEST.MF"

// WriteJar writes an archive to path holding only manifest, replacing any
// existing file. The entry is stamped with modTime so equal inputs give equal
// bytes.
func WriteJar(path string, manifest []byte, modTime time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mock-*.jar")
	if err != nil {
		return fmt.Errorf("write jar: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	zw := zip.NewWriter(tmp)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestEntry,
		Method:   zip.Deflate,
		Modified: modTime,
	})
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write jar: %w", err)
	}
	if _, err := w.Write(manifest); err != nil {
		tmp.Close()
		return fmt.Errorf("write jar: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("write jar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write jar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write jar: %w", err)
	}
	return nil
}

// ReadManifestBytes returns the raw manifest stored in the archive at path.
func ReadManifestBytes(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("read jar: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != ManifestEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read jar: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read jar: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("read jar: %s has no %s", path, ManifestEntry)
}

// ReadManifest parses the manifest stored in the archive at path.
func ReadManifest(path string) (Attributes, error) {
	data, err := ReadManifestBytes(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// EntryNames lists the archive's entries.
func EntryNames(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("read jar: %w", err)
	}
	defer zr.Close()

	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names, nil
}
