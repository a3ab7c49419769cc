package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/logger"
)

// LocalStorage stores uploaded files on the local filesystem, one
// subdirectory per user.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// SanitizeFilename strips path components and characters that are unsafe in
// stored filenames.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSpace(name)

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// SaveUserFile saves an uploaded file under <base>/<username>/<sanitized-name>
// and returns the path relative to the storage root.
func (ls *LocalStorage) SaveUserFile(fileHeader *multipart.FileHeader, username string) (string, error) {
	if fileHeader == nil {
		return "", errors.New("no file provided")
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	userDir := filepath.Join(ls.basePath, SanitizeFilename(username))
	if err := os.MkdirAll(userDir, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", userDir).Msg("Failed to create user directory")
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}

	storedName := SanitizeFilename(fileHeader.Filename)
	dstPath := filepath.Join(userDir, storedName)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		// Remove the partially written file
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	relPath := filepath.Join(SanitizeFilename(username), storedName)
	logger.Info().Str("filename", fileHeader.Filename).Str("relPath", relPath).Msg("File saved")
	return relPath, nil
}

// Exists reports whether a file with this name already exists in the user's
// folder.
func (ls *LocalStorage) Exists(username, filename string) bool {
	path := filepath.Join(ls.basePath, SanitizeFilename(username), SanitizeFilename(filename))
	_, err := os.Stat(path)
	return err == nil
}

// DeleteFile removes a file from the storage filesystem. Returns nil if the
// file does not exist (idempotent).
func (ls *LocalStorage) DeleteFile(relPath string) error {
	if relPath == "" {
		return nil
	}

	physicalPath := ls.FullPath(relPath)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", relPath)
	}

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted")
	return nil
}

// FullPath returns the full filesystem path for a stored relative path. An
// empty string is returned for paths escaping the storage root.
func (ls *LocalStorage) FullPath(relPath string) string {
	cleaned := filepath.Clean(relPath)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return ""
	}
	return filepath.Join(ls.basePath, cleaned)
}

// CopyToProjects copies (not moves) a stored file to
// <destinationDir>/<originalName>. The copy refuses to overwrite an
// existing destination file (apperrors.ErrDestinationExists).
func (ls *LocalStorage) CopyToProjects(relPath, destinationDir, originalName string) (string, error) {
	srcPath := ls.FullPath(relPath)
	if srcPath == "" {
		return "", fmt.Errorf("invalid source path: %s", relPath)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.ErrFileNotFound
		}
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstPath := filepath.Join(destinationDir, SanitizeFilename(originalName))
	if _, err := os.Stat(dstPath); err == nil {
		return "", apperrors.ErrDestinationExists
	}

	// O_EXCL narrows the check-then-act window between the stat above and
	// the create below
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", apperrors.ErrDestinationExists
		}
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	logger.Info().Str("src", srcPath).Str("dst", dstPath).Msg("File copied to projects directory")
	return dstPath, nil
}
