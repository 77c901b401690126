package service

import (
	"context"
	"sync"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
)

// In-memory stores mirroring the DynamoDB repositories, including the
// conditional-update semantics the rotation and exchange paths rely on.

type fakeRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: make(map[string]*models.RefreshToken)}
}

func (s *fakeRefreshStore) Store(ctx context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.tokens[token.Token] = &copied
	return nil
}

func (s *fakeRefreshStore) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return nil, autherr.ErrTokenNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *fakeRefreshStore) MarkUsed(ctx context.Context, token string) error {
	return s.transition(token, models.RefreshTokenUsed)
}

func (s *fakeRefreshStore) MarkInvalidated(ctx context.Context, token string) error {
	return s.transition(token, models.RefreshTokenInvalidated)
}

// transition mirrors the repository's conditional update: the failed
// condition reports which terminal state blocked it.
func (s *fakeRefreshStore) transition(token string, to models.RefreshTokenStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return autherr.ErrTokenAlreadyUsed
	}
	switch stored.Status {
	case models.RefreshTokenInvalidated:
		return autherr.ErrTokenInvalidated
	case models.RefreshTokenUsed:
		return autherr.ErrTokenAlreadyUsed
	}
	stored.Status = to
	return nil
}

// fakeOTPStore keeps one record per email, like the DynamoDB item layout:
// Store replaces the current record and MarkUsed fails when the record was
// superseded or already consumed.
type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]*models.OtpCode
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: make(map[string]*models.OtpCode)}
}

func (s *fakeOTPStore) Store(ctx context.Context, otp *models.OtpCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *otp
	s.codes[otp.Email] = &copied
	return nil
}

func (s *fakeOTPStore) Get(ctx context.Context, email string) (*models.OtpCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[email]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (s *fakeOTPStore) MarkUsed(ctx context.Context, otp *models.OtpCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[otp.Email]
	if !ok || stored.ID != otp.ID || stored.Used {
		return autherr.ErrOtpInvalidOrExpired
	}
	stored.Used = true
	return nil
}

type fakeAuthCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.AuthorizationCode
}

func newFakeAuthCodeStore() *fakeAuthCodeStore {
	return &fakeAuthCodeStore{codes: make(map[string]*models.AuthorizationCode)}
}

func (s *fakeAuthCodeStore) Store(ctx context.Context, code *models.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *code
	s.codes[code.Code] = &copied
	return nil
}

func (s *fakeAuthCodeStore) GetByCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[code]
	if !ok {
		return nil, autherr.ErrCodeNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *fakeAuthCodeStore) MarkUsed(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[code]
	if !ok || stored.Used {
		return autherr.ErrCodeAlreadyUsed
	}
	stored.Used = true
	return nil
}

type fakeClientStore struct {
	clients map[string]*models.Client
}

func newFakeClientStore(clients ...*models.Client) *fakeClientStore {
	s := &fakeClientStore{clients: make(map[string]*models.Client)}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *fakeClientStore) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, autherr.ErrClientNotFound
	}
	copied := *client
	return &copied, nil
}

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, autherr.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, autherr.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return autherr.ErrUserExists
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	s.byEmail[user.Email] = &copied
	s.byID[user.ID] = &copied
	return nil
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Time)}
}

func (d *fakeDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = expiresAt
	return nil
}

func (d *fakeDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	lastBody string
	fail     bool
}

func (s *fakeSender) Send(to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, to)
	s.lastBody = htmlBody
	return nil
}
