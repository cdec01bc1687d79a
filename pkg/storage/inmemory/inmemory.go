// Package inmemory provides a map-backed storage.Driver for development and
// tests. Nothing survives a restart.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/papercomputeco/chatline/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map and sequence below
	mu sync.RWMutex

	seq      int64
	users    map[int64]*storage.User
	tokens   map[string]*storage.Token
	chats    map[int64]*storage.Chat
	messages map[int64][]*storage.Message
	files    map[int64][]*storage.File

	now func() time.Time
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		users:    make(map[int64]*storage.User),
		tokens:   make(map[string]*storage.Token),
		chats:    make(map[int64]*storage.Chat),
		messages: make(map[int64][]*storage.Message),
		files:    make(map[int64][]*storage.File),
		now:      time.Now,
	}
}

func (d *Driver) nextID() int64 {
	d.seq++
	return d.seq
}

func notFound(kind string, id int64) error {
	return storage.NotFoundError{Kind: kind, Key: strconv.FormatInt(id, 10)}
}

func (d *Driver) CreateUser(_ context.Context, email, passwordHash, name string) (*storage.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if u.Email == email {
			return nil, storage.ErrDuplicateEmail
		}
	}

	u := &storage.User{
		ID:           d.nextID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    d.now().UTC(),
	}
	d.users[u.ID] = u

	cp := *u
	return &cp, nil
}

func (d *Driver) UserByEmail(_ context.Context, email string) (*storage.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}

	return nil, storage.NotFoundError{Kind: "user", Key: email}
}

func (d *Driver) UserByID(_ context.Context, id int64) (*storage.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, notFound("user", id)
	}

	cp := *u
	return &cp, nil
}

func (d *Driver) PutToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	if token == "" {
		return errors.New("cannot store empty token")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.tokens[token] = &storage.Token{Value: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (d *Driver) Token(_ context.Context, token string) (*storage.Token, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tokens[token]
	if !ok {
		return nil, storage.NotFoundError{Kind: "token"}
	}

	cp := *t
	return &cp, nil
}

func (d *Driver) CreateChat(_ context.Context, userID int64, title string) (*storage.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := &storage.Chat{
		ID:        d.nextID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: d.now().UTC(),
	}
	d.chats[c.ID] = c

	cp := *c
	return &cp, nil
}

func (d *Driver) ListChats(_ context.Context, userID int64) ([]*storage.Chat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := []*storage.Chat{}
	for _, c := range d.chats {
		if c.UserID == userID {
			cp := *c
			result = append(result, &cp)
		}
	}

	// IDs are handed out in creation order.
	slices.SortFunc(result, func(a, b *storage.Chat) int {
		return cmp.Compare(b.ID, a.ID)
	})

	return result, nil
}

// chat returns the caller's chat. Callers must hold mu.
func (d *Driver) chat(userID, chatID int64) (*storage.Chat, error) {
	c, ok := d.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, notFound("chat", chatID)
	}
	return c, nil
}

func (d *Driver) GetChat(_ context.Context, userID, chatID int64) (*storage.Chat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, err := d.chat(userID, chatID)
	if err != nil {
		return nil, err
	}

	cp := *c
	return &cp, nil
}

func (d *Driver) RenameChat(_ context.Context, userID, chatID int64, title string) (*storage.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.chat(userID, chatID)
	if err != nil {
		return nil, err
	}
	c.Title = title

	cp := *c
	return &cp, nil
}

func (d *Driver) DeleteChat(_ context.Context, userID, chatID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.chat(userID, chatID); err != nil {
		return nil
	}

	delete(d.chats, chatID)
	delete(d.messages, chatID)
	delete(d.files, chatID)
	return nil
}

func (d *Driver) AddMessage(_ context.Context, chatID int64, role, content string) (*storage.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[chatID]; !ok {
		return nil, notFound("chat", chatID)
	}

	m := &storage.Message{
		ID:        d.nextID(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: d.now().UTC(),
	}
	d.messages[chatID] = append(d.messages[chatID], m)

	cp := *m
	return &cp, nil
}

func (d *Driver) ListMessages(_ context.Context, chatID int64) ([]*storage.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*storage.Message, 0, len(d.messages[chatID]))
	for _, m := range d.messages[chatID] {
		cp := *m
		result = append(result, &cp)
	}

	return result, nil
}

func (d *Driver) AddFile(_ context.Context, file *storage.File) (*storage.File, error) {
	if file == nil {
		return nil, errors.New("cannot store nil file")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.chat(file.UserID, file.ChatID); err != nil {
		return nil, err
	}

	f := *file
	f.ID = d.nextID()
	f.CreatedAt = d.now().UTC()
	d.files[f.ChatID] = append(d.files[f.ChatID], &f)

	cp := f
	return &cp, nil
}

func (d *Driver) ListFiles(_ context.Context, userID, chatID int64) ([]*storage.File, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.chat(userID, chatID); err != nil {
		return nil, err
	}

	result := make([]*storage.File, 0, len(d.files[chatID]))
	for _, f := range d.files[chatID] {
		cp := *f
		result = append(result, &cp)
	}

	return result, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
