package auth

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/movie-service/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_760_000_000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeDirectory struct {
	mu        sync.Mutex
	byName    map[string]*domain.User
	lookupErr error
	updateErr error
	updates   []domain.TokenUpdate
}

var _ UserDirectory = (*fakeDirectory)(nil)

func newFakeDirectory(users ...*domain.User) *fakeDirectory {
	d := &fakeDirectory{byName: map[string]*domain.User{}}
	for _, u := range users {
		d.byName[u.Username] = u
	}
	return d
}

func (d *fakeDirectory) LookupByUsername(_ context.Context, username string) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	u, ok := d.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (d *fakeDirectory) LookupByID(_ context.Context, id string) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *fakeDirectory) UpdateTokens(_ context.Context, id string, update domain.TokenUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.updateErr != nil {
		return d.updateErr
	}
	for _, u := range d.byName {
		if u.ID == id {
			u.AccessToken = update.AccessToken
			u.RefreshToken = update.RefreshToken
			u.RefreshExpiresAt = update.RefreshExpiresAt
			u.Active = update.Active
			d.updates = append(d.updates, update)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (d *fakeDirectory) SetVerified(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.byName {
		if u.ID == id {
			u.Verified = true
			return nil
		}
	}
	return domain.ErrUserNotFound
}
