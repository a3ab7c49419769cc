package filestorage

import "mime/multipart"

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveUserFile saves an uploaded file under the user's folder and
	// returns the path relative to the storage root
	SaveUserFile(fileHeader *multipart.FileHeader, username string) (string, error)

	// Exists reports whether a file with this name already exists in the
	// user's folder
	Exists(username, filename string) bool

	// DeleteFile removes a file from storage
	DeleteFile(relPath string) error

	// FullPath returns the full filesystem path for a stored relative path
	FullPath(relPath string) string

	// CopyToProjects copies a stored file into an external projects
	// directory under its original name
	CopyToProjects(relPath, destinationDir, originalName string) (string, error)
}
