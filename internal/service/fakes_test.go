package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ariffaisalsheam/menux-app/internal/cache"
	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/ids"
	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
	"github.com/ariffaisalsheam/menux-app/internal/repository"
	"github.com/ariffaisalsheam/menux-app/internal/security"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]models.User{}} }

func (f *fakeUsers) emailOwner(email string) (string, bool) {
	for id, u := range f.byID {
		if u.Email == email {
			return id, true
		}
	}
	return "", false
}

func (f *fakeUsers) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.emailOwner(user.Email); taken {
		return repository.ErrEmailTaken
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.emailOwner(email); ok {
		return f.byID[id], nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, user models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if owner, taken := f.emailOwner(user.Email); taken && owner != user.ID {
		return models.User{}, repository.ErrEmailTaken
	}
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id string, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id string, url string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	u.AvatarURL = &url
	f.byID[id] = u
	return u, nil
}

func (f *fakeUsers) Stats(context.Context) (models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s models.UserStats
	for _, u := range f.byID {
		s.TotalUsers++
		switch u.Role {
		case models.RoleSuperAdmin:
			s.SuperAdmins++
		case models.RoleRestaurantOwner:
			s.RestaurantOwners++
		}
		if u.IsActive {
			s.ActiveUsers++
		}
	}
	return s, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func newFakeSessions() *fakeSessions { return &fakeSessions{byID: map[string]models.Session{}} }

func (f *fakeSessions) Create(_ context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.CreatedAt = time.Now()
	s.LastSeenAt = s.CreatedAt
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) FindByRefreshHash(_ context.Context, hash []byte) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if bytes.Equal(s.RefreshTokenHash, hash) && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (f *fakeSessions) CountByUser(_ context.Context, userID string) (int, error) {
	return len(f.forUser(userID)), nil
}

func (f *fakeSessions) forUser(userID string) []models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.byID {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out
}

func (f *fakeSessions) DeleteOldestSessions(_ context.Context, userID string, keep int) error {
	list := f.forUser(userID)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := keep; i < len(list); i++ {
		delete(f.byID, list[i].ID)
	}
	return nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID, keepID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.UserID == userID && id != keepID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) Touch(context.Context, string, string, string) error { return nil }

type fakeBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist { return &fakeBlacklist{jtis: map[string]time.Duration{}} }

func (f *fakeBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jtis[jti] = ttl
	return nil
}

func (f *fakeBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jtis[jti]
	return ok, nil
}

type fakeResets struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeResets() *fakeResets { return &fakeResets{tokens: map[string]string{}} }

func (f *fakeResets) Save(_ context.Context, hash []byte, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[string(hash)] = userID
	return nil
}

func (f *fakeResets) Consume(_ context.Context, hash []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[string(hash)]
	if !ok {
		return "", cache.ErrResetTokenNotFound
	}
	delete(f.tokens, string(hash))
	return id, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []queue.Task
}

func (f *fakeQueue) Enqueue(_ context.Context, t queue.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *fakeQueue) last() queue.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[len(f.tasks)-1]
}

type fakeObjects struct {
	key         string
	contentType string
	data        []byte
}

func (f *fakeObjects) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.data = key, contentType, data
	return "http://cdn.test/" + key, nil
}

var testHasher = security.NewPasswordHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

var testSecurity = config.SecurityConfig{
	JWTAccessSecret: "test-secret",
	JWTAccessTTL:    15 * time.Minute,
	RefreshTTL:      time.Hour,
	ResetTokenTTL:   time.Hour,
	MaxSessions:     2,
}

type fixture struct {
	users     *fakeUsers
	sessions  *fakeSessions
	blacklist *fakeBlacklist
	resets    *fakeResets
	queue     *fakeQueue
	auth      *AuthService
	account   *AccountService
}

func newFixture() *fixture {
	f := &fixture{
		users:     newFakeUsers(),
		sessions:  newFakeSessions(),
		blacklist: newFakeBlacklist(),
		resets:    newFakeResets(),
		queue:     &fakeQueue{},
	}
	tokens := security.NewTokenIssuer(testSecurity.JWTAccessSecret, testSecurity.JWTAccessTTL)
	f.auth = NewAuthService(f.users, f.sessions, f.blacklist, f.queue, tokens, testHasher, testSecurity, zerolog.Nop())
	f.account = NewAccountService(f.users, f.sessions, f.resets, f.queue, testHasher, testSecurity, zerolog.Nop())
	return f
}

func (f *fixture) seedUser(t *testing.T, email, password string, role models.UserRole, active bool) models.User {
	t.Helper()
	hash, err := testHasher.Hash(password)
	require.NoError(t, err)
	u := models.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ayesha",
		LastName:     "Rahman",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}
