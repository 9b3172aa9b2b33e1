package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore mirrors the conditional semantics of the postgres repository.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[string]*models.OTP
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*models.OTP{}}
}

func storeKey(email string, purpose models.OTPPurpose) string {
	return email + "|" + string(purpose)
}

func (m *memStore) byID(id uint) (string, *models.OTP) {
	for k, r := range m.rows {
		if r.ID == id {
			return k, r
		}
	}
	return "", nil
}

func (m *memStore) Replace(_ context.Context, otp *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	otp.ID = m.nextID
	cp := *otp
	m.rows[storeKey(otp.Email, otp.Purpose)] = &cp
	return nil
}

func (m *memStore) Find(_ context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[storeKey(email, purpose)]
	if !ok {
		return nil, apperr.ErrOTPInvalid
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) MarkVerified(_ context.Context, id uint, now time.Time, v repositories.OTPVerification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, r := m.byID(id)
	if r == nil || r.Verified || !now.Before(r.ExpiresAt) {
		return false, nil
	}
	r.Verified = true
	r.VerifiedAt = &now
	r.ExpiresAt = v.ExpiresAt
	if v.ResetTokenHash != "" {
		r.ResetTokenHash = v.ResetTokenHash
		r.ResetTokenExpiresAt = v.ResetTokenExpiresAt
	}
	return true, nil
}

func (m *memStore) ConsumeVerified(_ context.Context, email string, purpose models.OTPPurpose, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(email, purpose)
	r, ok := m.rows[k]
	if !ok || !r.Verified || !now.Before(r.ExpiresAt) {
		return false, nil
	}
	delete(m.rows, k)
	return true, nil
}

func (m *memStore) ConsumeReset(_ context.Context, id uint, tokenHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, r := m.byID(id)
	if r == nil || r.ResetTokenHash != tokenHash || !r.ResetTokenLive(now) {
		return false, nil
	}
	delete(m.rows, k)
	return true, nil
}

func (m *memStore) Delete(_ context.Context, email string, purpose models.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, storeKey(email, purpose))
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.rows {
		if !now.Before(r.ExpiresAt) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[key]++
	return c.n[key], nil
}

func (c *memCounter) Count(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key], nil
}

func (c *memCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.n, key)
	return nil
}

type MockNotifier struct {
	mock.Mock
	mu    sync.Mutex
	codes []string
}

func (m *MockNotifier) SendOTP(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	m.mu.Lock()
	m.codes = append(m.codes, code)
	m.mu.Unlock()
	args := m.Called(ctx, email, purpose, code, ttl)
	return args.Error(0)
}

func (m *MockNotifier) SendWelcome(ctx context.Context, employee *models.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockNotifier) SendAssignment(ctx context.Context, email, name string, policyID uint, deadline time.Time) error {
	return m.Called(ctx, email, name, policyID, deadline).Error(0)
}

func (m *MockNotifier) SendReportReleased(ctx context.Context, email, name string, policyID uint, reference string) error {
	return m.Called(ctx, email, name, policyID, reference).Error(0)
}

func (m *MockNotifier) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[len(m.codes)-1]
}

var testOTPConfig = config.OTPConfig{
	RegistrationTTL: 10 * time.Minute,
	ResetTTL:        10 * time.Minute,
	ResetTokenTTL:   15 * time.Minute,
	MaxAttempts:     3,
}

type fixture struct {
	svc      *service
	store    *memStore
	notifier *MockNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		notifier: new(MockNotifier),
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := NewService(f.store, &memCounter{n: map[string]int64{}}, f.notifier, testOTPConfig, zap.NewNop()).(*service)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func TestIssueCodeShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exp, err := f.svc.Issue(ctx, " User@Example.com ", models.OTPPurposeRegistration)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(10*time.Minute), exp)
	code := f.notifier.lastCode()
	assert.Len(t, code, 5)
	assert.NotEqual(t, byte('0'), code[0])

	_, err = f.svc.Issue(ctx, "user@example.com", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	assert.Len(t, f.notifier.lastCode(), 6)

	stored, err := f.store.Find(ctx, "user@example.com", models.OTPPurposeRegistration)
	require.NoError(t, err)
	assert.NotEqual(t, code, stored.CodeHash)
	assert.False(t, strings.Contains(stored.CodeHash, code))
}

func TestRegistrationVerifyAndConsumeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	code := f.notifier.lastCode()

	token, err := f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, code)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, code)
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)

	require.NoError(t, f.svc.ConsumeVerified(ctx, "a@b.co", models.OTPPurposeRegistration))
	assert.ErrorIs(t, f.svc.ConsumeVerified(ctx, "a@b.co", models.OTPPurposeRegistration), apperr.ErrEmailNotVerified)
}

func TestConsumeVerifiedRequiresVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.ConsumeVerified(ctx, "a@b.co", models.OTPPurposeRegistration), apperr.ErrEmailNotVerified)
}

func TestCheckVerifiedDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.CheckVerified(ctx, "a@b.co", models.OTPPurposeRegistration), apperr.ErrEmailNotVerified)

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.CheckVerified(ctx, "a@b.co", models.OTPPurposeRegistration), apperr.ErrEmailNotVerified)

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, f.notifier.lastCode())
	require.NoError(t, err)
	require.NoError(t, f.svc.CheckVerified(ctx, "A@B.co", models.OTPPurposeRegistration))
	require.NoError(t, f.svc.CheckVerified(ctx, "a@b.co", models.OTPPurposeRegistration))
	require.NoError(t, f.svc.ConsumeVerified(ctx, "a@b.co", models.OTPPurposeRegistration))
	assert.ErrorIs(t, f.svc.CheckVerified(ctx, "a@b.co", models.OTPPurposeRegistration), apperr.ErrEmailNotVerified)
}

func TestResetVerifyExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	code := f.notifier.lastCode()

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, "000000")
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)

	token, err := f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, code)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, code)
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)

	require.NoError(t, f.svc.ConsumeResetToken(ctx, "a@b.co", token))
	assert.ErrorIs(t, f.svc.ConsumeResetToken(ctx, "a@b.co", token), apperr.ErrResetTokenInvalid)
}

func TestIssuedResetTokenPassesResetValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	token, err := f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, f.notifier.lastCode())
	require.NoError(t, err)

	assert.NoError(t, validation.Struct(models.ResetPasswordInput{
		Email:           "a@b.co",
		ResetToken:      token,
		Password:        "N3w!Password",
		ConfirmPassword: "N3w!Password",
	}))
}

func TestResetVerifyFailsAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	code := f.notifier.lastCode()

	f.advance(10 * time.Minute)
	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, code)
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	token, err := f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, f.notifier.lastCode())
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	assert.ErrorIs(t, f.svc.ConsumeResetToken(ctx, "a@b.co", token), apperr.ErrResetTokenInvalid)
}

func TestSecondIssueInvalidatesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	first := f.notifier.lastCode()

	_, err = f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	second := f.notifier.lastCode()

	if first != second {
		_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, first)
		assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
	}
	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, second)
	assert.NoError(t, err)
	assert.Len(t, f.store.rows, 1)
}

func TestPurposesAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	reg := f.notifier.lastCode()
	_, err = f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, reg)
	assert.NoError(t, err)
}

func TestAttemptsExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	code := f.notifier.lastCode()

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, "00000")
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, "00000")
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, "00000")
	assert.ErrorIs(t, err, apperr.ErrOTPAttemptsExceeded)

	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, code)
	assert.ErrorIs(t, err, apperr.ErrOTPAttemptsExceeded)

	// A fresh code clears the counter.
	_, err = f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, "a@b.co", models.OTPPurposeRegistration, f.notifier.lastCode())
	assert.NoError(t, err)
}

func TestConcurrentVerifySingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)
	code := f.notifier.lastCode()

	const workers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Verify(ctx, "a@b.co", models.OTPPurposeResetPassword, code); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestIssueDropsRecordWhenMailFails(t *testing.T) {
	store := newMemStore()
	notifier := new(MockNotifier)
	notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	svc := NewService(store, &memCounter{n: map[string]int64{}}, notifier, testOTPConfig, zap.NewNop())

	_, err := svc.Issue(context.Background(), "a@b.co", models.OTPPurposeRegistration)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, store.rows)
}

func TestUnknownPurpose(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Issue(context.Background(), "a@b.co", "login")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "a@b.co", models.OTPPurposeRegistration)
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, "c@d.co", models.OTPPurposeResetPassword)
	require.NoError(t, err)

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.advance(11 * time.Minute)
	n, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
