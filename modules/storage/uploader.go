package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jaevor/go-nanoid"
)

// MaxFileSize is the largest accepted attachment (50 MB).
const MaxFileSize = 50 * 1024 * 1024

var (
	// ErrInvalidFile is returned for payloads missing name, type or data.
	ErrInvalidFile = errors.New("invalid file data")
	// ErrFileTooLarge is returned when the decoded file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file size exceeds 50 MB limit")
	// ErrUnsupportedType is returned for content types outside the allowed set.
	ErrUnsupportedType = errors.New("unsupported file type: only images, videos, PDFs and Word documents are allowed")
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

const wordLegacy = "application/msword"
const wordModern = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// fileClass describes where a content type is stored and how it is recorded.
type fileClass struct {
	Folder   string
	FileType string
}

// classify maps a content type onto its storage class.
func classify(contentType string) (fileClass, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return fileClass{Folder: "image", FileType: "image"}, nil
	case strings.HasPrefix(contentType, "video/"):
		return fileClass{Folder: "video", FileType: "video"}, nil
	case contentType == "application/pdf":
		return fileClass{Folder: "documents", FileType: "pdf"}, nil
	case contentType == wordLegacy, contentType == wordModern:
		return fileClass{Folder: "documents", FileType: "word"}, nil
	default:
		return fileClass{}, ErrUnsupportedType
	}
}

// sanitizeName strips directory components and unsafe characters from a
// client-supplied filename.
func sanitizeName(name string) string {
	clean := filepath.Base(filepath.Clean(name))
	clean = unsafeNameChars.ReplaceAllString(clean, "_")
	if clean == "." || clean == ".." || clean == "" {
		return "unnamed"
	}
	return clean
}

// Uploader validates attachment payloads and writes them under the uploads
// root, one subfolder per file class.
type Uploader struct {
	root  string
	newID func() string
}

// NewUploader creates an uploader rooted at dir. Stored names carry a nanoid
// suffix so repeated uploads of the same file never collide.
func NewUploader(dir string) (*Uploader, error) {
	gen, err := nanoid.Standard(12)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &Uploader{root: dir, newID: gen}, nil
}

// StoredFile describes a file written to disk.
type StoredFile struct {
	Name     string `json:"name"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// SaveBase64 validates and stores one base64-encoded attachment payload.
func (u *Uploader) SaveBase64(name, contentType, data string) (*StoredFile, error) {
	if name == "" || contentType == "" || data == "" {
		return nil, ErrInvalidFile
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return u.Save(name, contentType, decoded)
}

// Save validates and stores one attachment.
func (u *Uploader) Save(name, contentType string, data []byte) (*StoredFile, error) {
	if name == "" || contentType == "" {
		return nil, ErrInvalidFile
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	class, err := classify(contentType)
	if err != nil {
		return nil, err
	}

	folder := filepath.Join(u.root, class.Folder)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s", u.newID(), sanitizeName(name))
	path := filepath.Join(folder, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &StoredFile{
		Name:     fileName,
		FileType: class.FileType,
		Size:     int64(len(data)),
		URL:      "/uploads/" + class.Folder + "/" + fileName,
	}, nil
}
