package backend

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// User mirrors the identity provider's account record.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
}

// Repository is one entry of the repository list.
type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Owner returns the owner half of FullName.
func (r Repository) Owner() string {
	owner, _, _ := strings.Cut(r.FullName, "/")
	return owner
}

// RepoName returns the repository half of FullName, falling back to Name.
func (r Repository) RepoName() string {
	if _, name, ok := strings.Cut(r.FullName, "/"); ok {
		return name
	}
	return r.Name
}

// EntryType is the kind of a directory entry as sent on the wire.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type EntryType `json:"type"`
	Size int64     `json:"size,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Type == EntryDir }

// BaseName returns the last path segment.
func BaseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// FileInput is a file submitted for summary generation.
type FileInput struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Summary is one proposed test unit.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Framework   string `json:"framework,omitempty"`
	File        string `json:"file,omitempty"`
}

// GeneratedFile is the generated test code for one summary. On the wire the
// filename travels as "file".
type GeneratedFile struct {
	Filename string `json:"file" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// Valid reports whether the file carries both a filename and code.
func (f GeneratedFile) Valid() bool {
	return validate.Struct(f) == nil
}

// AuthResult is the response of the code exchange endpoint.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// CreatePRRequest is the body of the pull request endpoint.
type CreatePRRequest struct {
	Repo  string          `json:"repo" validate:"required,contains=/"`
	Files []GeneratedFile `json:"files" validate:"required,min=1,dive"`
}

// Validate checks the request before it is sent.
func (r CreatePRRequest) Validate() error {
	return validate.Struct(r)
}

type summariesRequest struct {
	Files []FileInput `json:"files"`
}

type summariesResponse struct {
	Summaries []Summary `json:"summaries"`
}

type codeRequest struct {
	Summary   string `json:"summary"`
	Framework string `json:"framework"`
}

type codeResponse struct {
	Code string `json:"code"`
}

type fileContentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

type pullRequestResponse struct {
	URL string `json:"url"`
}

var validate = validator.New()
