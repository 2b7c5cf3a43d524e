package wizard

import (
	"context"
	"time"

	"github.com/kastheco/testsmith/internal/backend"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// browserClient serves file contents for repobrowser in wizard tests.
type browserClient struct {
	files map[string]string
	errs  map[string]error
}

func (b *browserClient) ListRepositories(ctx context.Context, token string) ([]backend.Repository, error) {
	return nil, nil
}

func (b *browserClient) ListDirectory(ctx context.Context, token, owner, repo, dir string) ([]backend.Entry, error) {
	return nil, nil
}

func (b *browserClient) FileContent(ctx context.Context, token, owner, repo, path string) (string, error) {
	if err := b.errs[path]; err != nil {
		return "", err
	}
	return b.files[path], nil
}
