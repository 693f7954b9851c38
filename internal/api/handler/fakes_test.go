package handler

import (
	"context"
	"sync"
	"time"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/domain/model"
)

type memUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u != nil && u.Email == user.Email {
			return common.ErrConflict
		}
	}
	user.ID = int64(len(m.users) + 1)
	user.CreatedAt = time.Now()
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u != nil && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.users) || m.users[id-1] == nil {
		return nil, common.ErrNotFound
	}
	cp := *m.users[id-1]
	return &cp, nil
}

func (m *memUsers) delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id-1] = nil
}

type memMenu struct {
	mu    sync.Mutex
	items []*model.MenuItem
}

func (m *memMenu) Create(_ context.Context, item *model.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = int64(len(m.items) + 1)
	item.CreatedAt, item.UpdatedAt = time.Now(), time.Now()
	cp := *item
	m.items = append(m.items, &cp)
	return nil
}

func (m *memMenu) Update(_ context.Context, item *model.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.find(item.ID)
	if cur == nil {
		return common.ErrNotFound
	}
	cur.Title, cur.Description, cur.Category, cur.Price = item.Title, item.Description, item.Category, item.Price
	*item = *cur
	return nil
}

func (m *memMenu) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(id) == nil {
		return common.ErrNotFound
	}
	m.items[id-1] = nil
	return nil
}

func (m *memMenu) FindByID(_ context.Context, id int64) (*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.find(id)
	if item == nil {
		return nil, common.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memMenu) List(context.Context) ([]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []model.MenuItem{}
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i] != nil {
			items = append(items, *m.items[i])
		}
	}
	return items, nil
}

func (m *memMenu) find(id int64) *model.MenuItem {
	if id < 1 || int(id) > len(m.items) {
		return nil
	}
	return m.items[id-1]
}

type nopCleaner struct {
	mu   sync.Mutex
	urls []string
}

func (c *nopCleaner) Schedule(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, url)
	return nil
}

func (c *nopCleaner) scheduled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.urls...)
}
