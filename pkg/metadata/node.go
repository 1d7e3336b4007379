// Package metadata defines the file/folder tree, the per-owner quota record
// and the store contract that persists them, together with the two pieces of
// logic that must run inside a store transaction: ancestor size accounting and
// the quota guard.
package metadata

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// FileType is the coarse content classification shown to clients.
type FileType string

const (
	FileTypeMedia    FileType = "media"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
	FileTypeFolder   FileType = "folder"
)

// DefaultContentType is assumed when an upload carries no content type.
const DefaultContentType = "application/octet-stream"

// Node is a file or folder in an owner's tree.
//
// For a folder, Size is the sum of the sizes of every file below it and is
// maintained eagerly by Propagate.
type Node struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      uuid.UUID   `json:"owner_id"`
	ParentID     *uuid.UUID  `json:"parent_id,omitempty"`
	Name         string      `json:"name"`
	Kind         Kind        `json:"kind"`
	FileType     FileType    `json:"file_type"`
	Extension    string      `json:"extension,omitempty"`
	Size         int64       `json:"size"`
	URL          string      `json:"url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	LastModified time.Time   `json:"last_modified"`
	SharedWith   []uuid.UUID `json:"shared_with"`
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// BlobKey returns the object key of a file's content: "{id}.{extension}", or
// the bare id when the file has no extension.
func (n *Node) BlobKey() string {
	return BlobKey(n.ID, n.Extension)
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	if n.SharedWith != nil {
		c.SharedWith = append([]uuid.UUID(nil), n.SharedWith...)
	}
	return &c
}

// BlobKey builds the object key for a file id and extension.
func BlobKey(id uuid.UUID, extension string) string {
	if extension == "" {
		return id.String()
	}
	return id.String() + "." + extension
}

// Account is the per-owner quota record plus the credentials used to sign in.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	SuperUser    bool      `json:"super_user"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

// Available returns the remaining quota, never below zero.
func (a *Account) Available() int64 {
	if a.StorageUsed >= a.StorageLimit {
		return 0
	}
	return a.StorageLimit - a.StorageUsed
}

// ClassifyContentType maps a MIME type onto a FileType.
func ClassifyContentType(contentType string) FileType {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"):
		return FileTypeMedia
	case strings.HasPrefix(mediaType, "text/"), mediaType == "application/pdf":
		return FileTypeDocument
	default:
		return FileTypeOther
	}
}

// SplitFilename splits an uploaded filename into display name and extension.
// Directory components are dropped. A leading dot does not start an
// extension, so ".env" has name ".env" and no extension.
func SplitFilename(filename string) (name, extension string) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if base == "." || base == "/" {
		return "", ""
	}

	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return strings.TrimSuffix(base, "."), ""
	}
	return base[:dot], base[dot+1:]
}

// NormalizeName trims name and rejects empty results.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewValidationError("name must not be empty")
	}
	if strings.ContainsAny(trimmed, "/\x00") {
		return "", NewValidationError("name %q contains a path separator", trimmed)
	}
	return trimmed, nil
}

// ParseID parses a textual identifier. field names the input in the error.
func ParseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, NewValidationError("invalid %s %q", field, value)
	}
	if id == uuid.Nil {
		return uuid.Nil, NewValidationError("invalid %s %q", field, value)
	}
	return id, nil
}

// ParseOptionalID parses value, returning nil for an empty string.
func ParseOptionalID(field, value string) (*uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := ParseID(field, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// String implements fmt.Stringer for log output.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s %q size=%d)", n.Kind, n.ID, n.Name, n.Size)
}
