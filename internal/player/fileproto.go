// Package player drives a playback session: it owns the engine client,
// registers the custom file protocol, pumps engine events, and persists
// positions to the history store.
package player

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cromfel/go-mpv/pkg/mpv"
)

// FileScheme is the custom scheme served by the file protocol. URIs look
// like "filereader:///absolute/path".
const FileScheme = "filereader"

// fileStream is the per-stream state: one open file and its size, cached at
// open time so size callbacks never hit the filesystem.
type fileStream struct {
	f    *os.File
	size int64
}

// fileProtoData is shared across every stream of the protocol.
type fileProtoData struct {
	roots []string
}

// NewFileProtocol builds the filereader:// protocol. When roots is
// non-empty, only files under one of those directories may be opened; an
// empty list disables the restriction.
func NewFileProtocol(roots []string) *mpv.Protocol[fileStream, fileProtoData] {
	data := fileProtoData{roots: cleanRoots(roots)}
	return mpv.NewProtocol(FileScheme, data,
		openFileStream, closeFileStream, readFileStream, seekFileStream, sizeFileStream)
}

func cleanRoots(roots []string) []string {
	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(root))
	}
	return cleaned
}

// pathFromURI extracts the filesystem path from a filereader URI. Only
// absolute paths are accepted so access checks cannot be sidestepped with
// working-directory tricks.
func pathFromURI(uri string) (string, error) {
	path, ok := strings.CutPrefix(uri, FileScheme+"://")
	if !ok {
		return "", fmt.Errorf("player: uri %q does not carry the %s scheme", uri, FileScheme)
	}
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("player: %s paths must be absolute, got %q", FileScheme, path)
	}
	return filepath.Clean(path), nil
}

// allowed reports whether path lies under one of the configured roots.
func (d *fileProtoData) allowed(path string) error {
	if len(d.roots) == 0 {
		return nil
	}
	for _, root := range d.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("player: %s is outside the configured library roots", path)
}

func openFileStream(data *fileProtoData, uri string) (fileStream, error) {
	path, err := pathFromURI(uri)
	if err != nil {
		return fileStream{}, err
	}
	if err := data.allowed(path); err != nil {
		return fileStream{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return fileStream{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fileStream{}, err
	}
	if info.IsDir() {
		_ = f.Close()
		return fileStream{}, fmt.Errorf("player: %s is a directory", path)
	}

	return fileStream{f: f, size: info.Size()}, nil
}

func closeFileStream(s *fileStream) {
	_ = s.f.Close()
}

func readFileStream(s *fileStream, buf []byte) (int, error) {
	return s.f.Read(buf)
}

func seekFileStream(s *fileStream, offset int64) (int64, error) {
	return s.f.Seek(offset, io.SeekStart)
}

func sizeFileStream(s *fileStream) (int64, error) {
	return s.size, nil
}
