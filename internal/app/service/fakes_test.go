package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/domain/model"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
	err    error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type memMenuRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*model.MenuItem
	lists  int
}

func newMemMenuRepo() *memMenuRepo {
	return &memMenuRepo{items: make(map[int64]*model.MenuItem)}
}

func (r *memMenuRepo) Create(_ context.Context, item *model.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memMenuRepo) Update(_ context.Context, item *model.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[item.ID]
	if !ok {
		return common.ErrNotFound
	}
	cur.Title, cur.Description, cur.Category, cur.Price = item.Title, item.Description, item.Category, item.Price
	cur.UpdatedAt = time.Now()
	*item = *cur
	return nil
}

func (r *memMenuRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memMenuRepo) FindByID(_ context.Context, id int64) (*model.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *memMenuRepo) List(_ context.Context) ([]model.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	items := make([]model.MenuItem, 0, len(r.items))
	for id := r.nextID; id > 0; id-- {
		if item, ok := r.items[id]; ok {
			items = append(items, *item)
		}
	}
	return items, nil
}

type memCache struct {
	mu          sync.Mutex
	gen         int64
	entries     map[int64][]model.MenuItem
	invalidated int
}

func (c *memCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memCache) Get(_ context.Context, gen int64) ([]model.MenuItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.entries[gen]
	return items, ok, nil
}

func (c *memCache) Set(_ context.Context, gen int64, items []model.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[int64][]model.MenuItem)
	}
	c.entries[gen] = items
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.invalidated++
	return nil
}

// pausingListRepo holds its first List after the read until release is closed.
type pausingListRepo struct {
	*memMenuRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingListRepo() *pausingListRepo {
	return &pausingListRepo{
		memMenuRepo: newMemMenuRepo(),
		read:        make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (r *pausingListRepo) List(ctx context.Context) ([]model.MenuItem, error) {
	items, err := r.memMenuRepo.List(ctx)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return items, err
}

type fakeImageStore struct {
	uploadErr error
	uploaded  map[string]string // key -> content type
}

func (s *fakeImageStore) Upload(_ context.Context, key, contentType string, _ []byte) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if s.uploaded == nil {
		s.uploaded = make(map[string]string)
	}
	s.uploaded[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeImageStore) Delete(context.Context, string) error { return nil }

type recordingCleaner struct {
	urls []string
	err  error
}

func (c *recordingCleaner) Schedule(_ context.Context, url string) error {
	c.urls = append(c.urls, url)
	return c.err
}

var errBoom = errors.New("boom")
