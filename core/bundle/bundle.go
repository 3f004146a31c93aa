// Package bundle packs clarified files into a single compressed tar archive.
package bundle

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

// CompressionType is the archive compression.
type CompressionType string

const (
	CompressionXZ   CompressionType = "xz"
	CompressionGzip CompressionType = "gzip"
)

// Injectable functions for testing
var (
	xzNewWriter        = xz.NewWriter
	gzipNewWriterLevel = gzip.NewWriterLevel
)

// Entry is one file to pack. Name is the path inside the archive.
type Entry struct {
	Name string
	Path string
}

// CompressionFor picks the compression from the archive name: .tar.gz and
// .tgz use gzip, everything else xz.
func CompressionFor(archivePath string) CompressionType {
	lower := strings.ToLower(archivePath)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return CompressionGzip
	}
	return CompressionXZ
}

// Pack writes entries to archivePath. The archive is written to a temporary
// file first and renamed into place once complete.
func Pack(archivePath string, entries []Entry) error {
	return PackWithCompression(archivePath, entries, CompressionFor(archivePath))
}

// PackWithCompression is Pack with an explicit compression.
func PackWithCompression(archivePath string, entries []Entry, compression CompressionType) (err error) {
	dir := filepath.Dir(archivePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return errors.NewIO("create", archivePath, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	var compressWriter io.WriteCloser
	switch compression {
	case CompressionGzip:
		compressWriter, err = gzipNewWriterLevel(tmp, gzip.BestCompression)
		if err != nil {
			return fmt.Errorf("failed to create gzip writer: %w", err)
		}
	case CompressionXZ:
		compressWriter, err = xzNewWriter(tmp)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
	default:
		return errors.Wrapf(errors.ErrUnsupported, "compression %q", compression)
	}

	tarWriter := tar.NewWriter(compressWriter)
	for _, e := range entries {
		data, readErr := os.ReadFile(e.Path)
		if readErr != nil {
			return errors.NewIO("read", e.Path, readErr)
		}
		if err = writeToTar(tarWriter, e.Name, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	if err = tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err = compressWriter.Close(); err != nil {
		return fmt.Errorf("failed to close %s writer: %w", compression, err)
	}
	if err = tmp.Close(); err != nil {
		return errors.NewIO("close", tmpPath, err)
	}
	if err = os.Rename(tmpPath, archivePath); err != nil {
		return errors.NewIO("rename", archivePath, err)
	}
	return nil
}

// writeToTar writes a file to the tar archive.
func writeToTar(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name: filepath.ToSlash(name),
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// DetectCompression detects the compression of an archive from its magic
// bytes.
func DetectCompression(archivePath string) (CompressionType, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	magic := make([]byte, 6)
	n, err := io.ReadFull(file, magic)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", errors.NewIO("read magic bytes", archivePath, err)
	}

	// gzip: 1f 8b
	if n >= 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip, nil
	}
	// xz: fd 37 7a 58 5a 00
	if n >= 6 && magic[0] == 0xfd && magic[1] == 0x37 && magic[2] == 0x7a &&
		magic[3] == 0x58 && magic[4] == 0x5a && magic[5] == 0x00 {
		return CompressionXZ, nil
	}
	return "", errors.Wrapf(errors.ErrUnsupported, "compression of %s", archivePath)
}

// Read returns the files stored in an archive, keyed by name.
func Read(archivePath string) (map[string][]byte, error) {
	compression, err := DetectCompression(archivePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	var r io.Reader
	switch compression {
	case CompressionGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	default:
		xr, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xr
	}

	files := make(map[string][]byte)
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		files[header.Name] = data
	}
	return files, nil
}

// Names returns the sorted names of an archive's files.
func Names(archivePath string) ([]string, error) {
	files, err := Read(archivePath)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
