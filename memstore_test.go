package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// memStore is an in-memory Store for service and handler tests.
type memStore struct {
	mu           sync.Mutex
	nextUser     int64
	nextTx       int64
	users        map[int64]User
	transactions map[int64]Transaction
	failCount    error
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[int64]User{},
		transactions: map[int64]Transaction{},
	}
}

func (m *memStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (m *memStore) UserExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCount != nil {
		return 0, m.failCount
	}
	return int64(len(m.users)), nil
}

func (m *memStore) CreateUser(ctx context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Username == u.Username || other.Email == u.Email {
			return User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
	}
	m.nextUser++
	u.Id = m.nextUser
	m.users[u.Id] = u
	return u, nil
}

func (m *memStore) UpdateUser(ctx context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Id]; !ok {
		return User{}, fmt.Errorf("user %d: %w", u.Id, ErrNotFound)
	}
	for id, other := range m.users {
		if id != u.Id && (other.Username == u.Username || other.Email == u.Email) {
			return User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
	}
	m.users[u.Id] = u
	return u, nil
}

func (m *memStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Transaction{}
	for _, t := range m.transactions {
		switch {
		case t.UserId != f.UserId:
		case f.Type != "" && !strings.Contains(t.Type, f.Type):
		case f.Category != "" && t.Category != f.Category:
		case f.Start != nil && t.Date.Before(*f.Start):
		case f.End != nil && t.Date.After(*f.End):
		default:
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Id > out[j].Id
	})
	return out, nil
}

func (m *memStore) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *memStore) TransactionExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.transactions[id]
	return ok, nil
}

func (m *memStore) CreateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTx++
	t.Id = m.nextTx
	m.transactions[t.Id] = t
	return t, nil
}

func (m *memStore) UpdateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.Id]; !ok {
		return Transaction{}, fmt.Errorf("transaction %d: %w", t.Id, ErrNotFound)
	}
	m.transactions[t.Id] = t
	return t, nil
}

func (m *memStore) DeleteTransaction(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	delete(m.transactions, id)
	return nil
}

func (m *memStore) Close() error { return nil }

// recordingPublisher keeps published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(e TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}
