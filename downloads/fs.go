package downloads

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPermissions = 0o755
)

// sanitize strips characters that are invalid in file names on common
// filesystems.
func sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune("<>:\"/\\|?*", r) {
			return -1
		}
		return r
	}, s)

	out := strings.TrimRight(mapped, ". ")
	if out == "" {
		return "_"
	}
	return out
}

func ensureDir(path string) error {
	return os.MkdirAll(path, dirPermissions)
}

func removeFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// deleteFolderIfEmpty prunes a directory left behind by a removed download.
func deleteFolderIfEmpty(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) == 0 {
		return os.Remove(dirPath)
	}
	return nil
}

// pruneEmptyParents removes the album and artist directories of a deleted
// file when they end up empty.
func pruneEmptyParents(filePath, root string) {
	dir := filepath.Dir(filePath)
	for i := 0; i < 2; i++ {
		if dir == root || dir == "." || dir == string(filepath.Separator) {
			return
		}
		if err := deleteFolderIfEmpty(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// shortID trims a track id down to a suffix fit for a file name.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// extForContentType maps a stream content type to a file extension.
func extForContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	switch strings.TrimSpace(contentType) {
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return ".m4a"
	case "audio/ogg", "application/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".audio"
	}
}
