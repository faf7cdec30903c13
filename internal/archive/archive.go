// Package archive bundles report artifacts into a ZIP file.
package archive

import (
	"archive/zip"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
)

// ErrNoFiles is returned when Create is called without inputs.
var ErrNoFiles = errors.New("no files to archive")

// ErrDuplicateName is returned when two inputs share a base name.
var ErrDuplicateName = errors.New("duplicate file name in archive")

// Create writes a ZIP at zipPath holding files under their base names and
// returns the hex SHA3-256 digest of each file keyed by base name.
// Every input must exist. On error no partial archive is left behind.
func Create(zipPath string, files ...string) (digests map[string]string, err error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = true
		if _, statErr := os.Stat(f); statErr != nil {
			return nil, fmt.Errorf("missing archive input: %w", statErr)
		}
	}

	if err := os.MkdirAll(filepath.Dir(zipPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	out, err := os.Create(zipPath) //nolint:gosec // path is built from the output dir and dataset title
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(zipPath)
			digests = nil
		}
	}()

	zw := zip.NewWriter(out)
	digests = make(map[string]string, len(files))
	for _, f := range files {
		sum, addErr := addFile(zw, f)
		if addErr != nil {
			_ = zw.Close()
			return nil, addErr
		}
		digests[filepath.Base(f)] = sum
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return digests, nil
}

// addFile stores one file and returns its digest.
func addFile(zw *zip.Writer, path string) (string, error) {
	in, err := os.Open(path) //nolint:gosec // inputs are artifacts this process wrote
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate
	header.Modified = info.ModTime().UTC().Truncate(time.Second)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return "", fmt.Errorf("failed to add %s: %w", header.Name, err)
	}

	h := sha3.New256()
	if _, err := io.Copy(io.MultiWriter(w, h), in); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", header.Name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the digest of every entry in the archive at zipPath.
func Verify(zipPath string) (map[string]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	digests := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		h := sha3.New256()
		_, err = io.Copy(h, rc) //nolint:gosec // archives are our own, size is bounded by the artifacts
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		digests[f.Name] = hex.EncodeToString(h.Sum(nil))
	}
	return digests, nil
}
