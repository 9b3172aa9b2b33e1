package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/mocks"
	"dcip/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var admin = &models.Principal{ID: 1, Kind: models.PrincipalEmployee, Role: models.RoleAdmin, Status: models.StatusActive}

type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) MarkOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobs) MergeReady(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestTrigger(t *testing.T) {
	ctx := context.Background()
	otps := new(mocks.OTPService)
	jobs := new(MockJobs)
	otps.On("PurgeExpired", ctx).Return(int64(4), nil)
	jobs.On("MarkOverdue", ctx).Return(int64(0), apperr.Internal("database operation failed", errors.New("deadlock detected")))
	jobs.On("MergeReady", ctx).Return(2, nil)

	s := New(otps, jobs, time.Minute, zap.NewNop())
	res, err := s.Trigger(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "manual", res.Trigger)
	assert.Equal(t, int64(4), res.PurgedOTPs)
	assert.Equal(t, 2, res.MergedReports)
	assert.Equal(t, []string{"mark overdue: database operation failed"}, res.Errors)

	st, err := s.Status(admin)
	require.NoError(t, err)
	assert.False(t, st.Running)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, int64(4), st.LastRun.PurgedOTPs)
	assert.Equal(t, "1m0s", st.Interval)
}

func TestTriggerRequiresPermission(t *testing.T) {
	s := New(new(mocks.OTPService), new(MockJobs), time.Minute, zap.NewNop())
	staff := &models.Principal{ID: 2, Kind: models.PrincipalEmployee, Role: models.RoleStaff, Status: models.StatusActive}

	_, err := s.Trigger(context.Background(), staff)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.Status(staff)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestOverlappingRunsAreRejected(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	otps := new(mocks.OTPService)
	jobs := new(MockJobs)
	otps.On("PurgeExpired", ctx).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(int64(0), nil).Once()
	jobs.On("MarkOverdue", ctx).Return(int64(0), nil)
	jobs.On("MergeReady", ctx).Return(0, nil)

	s := New(otps, jobs, time.Minute, zap.NewNop())
	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(ctx, admin)
		done <- err
	}()

	<-started
	st, err := s.Status(admin)
	require.NoError(t, err)
	assert.True(t, st.Running)

	_, err = s.Trigger(ctx, admin)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	close(release)
	require.NoError(t, <-done)
}

type countingOTPs struct {
	calls atomic.Int32
}

func (c *countingOTPs) PurgeExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestStartRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	otps := &countingOTPs{}
	jobs := new(MockJobs)
	jobs.On("MarkOverdue", mock.Anything).Return(int64(0), nil)
	jobs.On("MergeReady", mock.Anything).Return(0, nil)

	s := New(otps, jobs, 10*time.Millisecond, zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return otps.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	st, err := s.Status(admin)
	require.NoError(t, err)
	assert.Equal(t, "timer", st.LastRun.Trigger)
}
