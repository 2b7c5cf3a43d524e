package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kastheco/testsmith/internal/backend"
)

type fakeExchanger struct {
	exchangeCalls atomic.Int32
	userCalls     atomic.Int32

	// gate, when set, blocks ExchangeCode until closed.
	gate chan struct{}

	result     backend.AuthResult
	exchangeFn func(code string) (backend.AuthResult, error)
	userErr    error
	user       backend.User
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (backend.AuthResult, error) {
	f.exchangeCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.exchangeFn != nil {
		return f.exchangeFn(code)
	}
	return f.result, nil
}

func (f *fakeExchanger) CurrentUser(ctx context.Context, token string) (backend.User, error) {
	f.userCalls.Add(1)
	if f.userErr != nil {
		return backend.User{}, f.userErr
	}
	return f.user, nil
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
	cleared  int
}

func (r *recordingSink) Set(message string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return "id"
}

func (r *recordingSink) Report(err error) {
	if err == nil {
		return
	}
	r.Set(messageOf(err))
}

func (r *recordingSink) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recordingSink) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	hook func(string)
}

func (o *recordingOpener) open(u string) error {
	o.mu.Lock()
	o.urls = append(o.urls, u)
	hook := o.hook
	o.mu.Unlock()
	if hook != nil {
		go hook(u)
	}
	return nil
}
