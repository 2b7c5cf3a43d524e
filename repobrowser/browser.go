// Package repobrowser lists repositories and walks one repository's tree.
//
// A Browser belongs to a single repository screen. It tracks the current
// directory, the listing for it and the set of selected files. Listings are
// tagged with the path they were requested for and dropped if the user has
// navigated elsewhere by the time they arrive.
package repobrowser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/log"
	"golang.org/x/sync/errgroup"
)

// User-facing messages.
const (
	MsgMissingToken    = "Authentication token is missing. Please log in again."
	MsgListReposFailed = "Failed to fetch repositories. Please check your GitHub permissions."
	MsgListFilesFailed = "Failed to fetch files. Check permissions or try again."
	MsgNoContent       = "Could not fetch content for any of the selected files."
)

// DefaultConcurrency bounds parallel file fetches.
const DefaultConcurrency = 4

// ErrNotDirectory is returned when entering a file entry.
var ErrNotDirectory = errors.New("entry is not a directory")

// Client is the subset of the backend client used for browsing.
type Client interface {
	ListRepositories(ctx context.Context, token string) ([]backend.Repository, error)
	ListDirectory(ctx context.Context, token, owner, repo, dir string) ([]backend.Entry, error)
	FileContent(ctx context.Context, token, owner, repo, path string) (string, error)
}

// TokenSource supplies the current access token.
type TokenSource interface {
	Token() string
}

// File is a fetched file.
type File struct {
	Path    string
	Content string
}

// Failure records a file that could not be fetched.
type Failure struct {
	Path string
	Err  error
}

// ListRepositories returns the user's repositories in the order received.
func ListRepositories(ctx context.Context, c Client, tokens TokenSource, errs errsignal.Sink) ([]backend.Repository, error) {
	token := tokens.Token()
	if token == "" {
		err := apperr.New(apperr.Unauthenticated, MsgMissingToken)
		errs.Report(err)
		return nil, err
	}
	repos, err := c.ListRepositories(ctx, token)
	if err != nil {
		listErr := apperr.Wrap(apperr.NetworkFailure, backend.DetailOr(err, MsgListReposFailed), err)
		errs.Report(listErr)
		return nil, listErr
	}
	return repos, nil
}

// Browser is safe for concurrent use.
type Browser struct {
	client      Client
	tokens      TokenSource
	errs        errsignal.Sink
	owner       string
	repo        string
	concurrency int

	mu        sync.Mutex
	path      string
	entries   []backend.Entry
	loaded    bool
	selection *Selection
}

// Option configures a Browser.
type Option func(*Browser)

// WithConcurrency bounds parallel fetches in FetchBatch.
func WithConcurrency(n int) Option {
	return func(b *Browser) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// New creates a browser at the root of owner/repo.
func New(c Client, tokens TokenSource, errs errsignal.Sink, owner, repo string, opts ...Option) *Browser {
	b := &Browser{
		client:      c,
		tokens:      tokens,
		errs:        errs,
		owner:       owner,
		repo:        repo,
		concurrency: DefaultConcurrency,
		selection:   NewSelection(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FullName returns "owner/repo".
func (b *Browser) FullName() string { return b.owner + "/" + b.repo }

// Path returns the current directory; "" is the root.
func (b *Browser) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// Entries returns the listing for the current directory and whether it has
// been loaded.
func (b *Browser) Entries() ([]backend.Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]backend.Entry, len(b.entries))
	copy(out, b.entries)
	return out, b.loaded
}

// EnterDirectory descends into entry and clears the listing. It returns the
// path that must be fetched next.
func (b *Browser) EnterDirectory(entry backend.Entry) (string, error) {
	if !entry.IsDir() {
		return "", fmt.Errorf("enter %q: %w", entry.Path, ErrNotDirectory)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setPathLocked(strings.Trim(entry.Path, "/"))
	return b.path, nil
}

// GoUp moves to the parent directory. At the root it does nothing.
func (b *Browser) GoUp() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.path == "" {
		return ""
	}
	parent := ""
	if i := strings.LastIndex(b.path, "/"); i >= 0 {
		parent = b.path[:i]
	}
	b.setPathLocked(parent)
	return b.path
}

func (b *Browser) setPathLocked(p string) {
	b.path = p
	b.entries = nil
	b.loaded = false
}

// Load fetches the listing for the current directory and applies it if the
// directory is still current when the response arrives.
func (b *Browser) Load(ctx context.Context) error {
	path := b.Path()
	entries, err := b.FetchDirectory(ctx, path)
	if err != nil {
		return err
	}
	b.Apply(path, entries)
	return nil
}

// FetchDirectory lists path without touching the browser state.
func (b *Browser) FetchDirectory(ctx context.Context, path string) ([]backend.Entry, error) {
	entries, err := b.client.ListDirectory(ctx, b.tokens.Token(), b.owner, b.repo, path)
	if err != nil {
		listErr := apperr.Wrap(apperr.NetworkFailure, MsgListFilesFailed, err)
		if b.Path() == path {
			b.errs.Report(listErr)
		}
		return nil, listErr
	}
	return entries, nil
}

// Apply installs entries fetched for path. It returns false and discards them
// when path is no longer the current directory.
func (b *Browser) Apply(path string, entries []backend.Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if path != b.path {
		log.InfoLog.Printf("repobrowser: dropping stale listing for %q (now at %q)", path, b.path)
		return false
	}
	kept := make([]backend.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Type == backend.EntryFile || e.Type == backend.EntryDir {
			kept = append(kept, e)
		}
	}
	b.entries = kept
	b.loaded = true
	return true
}

// ToggleFileSelection flips the selection of path and returns whether it is
// now selected.
func (b *Browser) ToggleFileSelection(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Toggle(path)
}

// IsSelected reports whether path is selected.
func (b *Browser) IsSelected(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Has(path)
}

// Selected returns the selected paths in selection order.
func (b *Browser) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Paths()
}

// FetchFileContent returns the decoded text of one file.
func (b *Browser) FetchFileContent(ctx context.Context, path string) (string, error) {
	content, err := b.client.FileContent(ctx, b.tokens.Token(), b.owner, b.repo, path)
	if err != nil {
		return "", apperr.Wrap(apperr.NetworkFailure, failedFetchMessage(path), err)
	}
	return content, nil
}

// FetchBatch fetches every path independently. Files that fail are logged,
// left out of the result and returned as failures; they never reach the
// error signal. The result keeps the order of paths.
func (b *Browser) FetchBatch(ctx context.Context, paths []string) ([]File, []Failure) {
	type slot struct {
		content string
		err     error
	}
	slots := make([]slot, len(paths))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			content, err := b.FetchFileContent(ctx, p)
			slots[i] = slot{content: content, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var files []File
	var failures []Failure
	for i, p := range paths {
		if err := slots[i].err; err != nil {
			log.WarningLog.Printf("repobrowser: %v", err)
			failures = append(failures, Failure{Path: p, Err: err})
			continue
		}
		files = append(files, File{Path: p, Content: slots[i].content})
	}
	return files, failures
}

// FetchSelected fetches the current selection. When files were selected but
// none could be fetched it fails with EmptyInput.
func (b *Browser) FetchSelected(ctx context.Context) ([]File, error) {
	paths := b.Selected()
	if len(paths) == 0 {
		return nil, nil
	}
	files, _ := b.FetchBatch(ctx, paths)
	if len(files) == 0 {
		err := apperr.New(apperr.EmptyInput, MsgNoContent)
		b.errs.Report(err)
		return nil, err
	}
	return files, nil
}

// Breadcrumb returns the segments of the current path.
func (b *Browser) Breadcrumb() []string {
	p := b.Path()
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func failedFetchMessage(path string) string {
	return fmt.Sprintf("Failed to fetch content for %s.", backend.BaseName(path))
}
