package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// EnsureEvidenceDir creates the local evidence directory if it doesn't exist.
// Used only when R2 is not configured.
func EnsureEvidenceDir() error {
	return os.MkdirAll("evidence", os.ModePerm)
}

// SaveEvidenceLocally writes the uploaded document under the evidence dir
// and returns its path.
func SaveEvidenceLocally(fileHeader *multipart.FileHeader, key string) (string, error) {
	destPath := filepath.Join("evidence", filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return destPath, nil
}
