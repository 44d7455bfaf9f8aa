package lookup

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/models"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateRegistration(ctx context.Context, req models.CreateRegistrationRequest) (*models.Registration, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockGateway) CheckIdentifier(ctx context.Context, nationalID string) (*models.CheckResult, error) {
	args := m.Called(ctx, nationalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckResult), args.Error(1)
}

func (m *MockGateway) FetchByCode(ctx context.Context, code string) (*models.Registration, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func newTestFlow(t *testing.T, gw *MockGateway) *Flow {
	return NewFlow(gw, WithLogger(logger.NewTestLogger(t)))
}

func TestFlow_ScenarioB_NotFound(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "000000000000").Return(&models.CheckResult{Exists: false}, nil).Once()

	f := newTestFlow(t, gw)
	res, err := f.Check(context.Background(), "000000000000")
	require.NoError(t, err)

	assert.Equal(t, NotFound, res.State)
	assert.Equal(t, NotFoundMessage, res.Message)
	assert.True(t, errors.HasCode(res.Err, errors.ErrCodeNotFound))
	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "FetchByCode", mock.Anything, mock.Anything)
}

func TestFlow_ScenarioC_ShortIdentifier(t *testing.T) {
	gw := new(MockGateway)
	f := newTestFlow(t, gw)

	res, err := f.Check(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, Idle, res.State)
	assert.Equal(t, "12345", res.Identifier)
	assert.Equal(t, InvalidIdentifierMessage, res.Message)
	assert.True(t, errors.HasCode(res.Err, errors.ErrCodeLocalValidation))
	gw.AssertNotCalled(t, "CheckIdentifier", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "FetchByCode", mock.Anything, mock.Anything)
}

func TestFlow_Found(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "123456789012").Return(&models.CheckResult{Exists: true, Code: "REG-0001"}, nil).Once()
	gw.On("FetchByCode", mock.Anything, "REG-0001").Return(&models.Registration{
		Code:     "REG-0001",
		Name:     "Asha Devi",
		District: "Khurda",
		Block:    "Bhubaneswar",
		PhotoURL: "https://cdn.example.org/p/1.jpg",
	}, nil).Once()

	f := newTestFlow(t, gw)
	res, err := f.Check(context.Background(), "1234-5678-9012")
	require.NoError(t, err)

	assert.Equal(t, Found, res.State)
	assert.Equal(t, "REG-0001", res.Code)
	require.NotNil(t, res.Registration)
	assert.Equal(t, "Asha Devi", res.Registration.Name)
	assert.Empty(t, res.Message)
	assert.Equal(t, res, f.Result())
	gw.AssertExpectations(t)
}

func TestFlow_PartialFlowIsError(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "123456789012").Return(&models.CheckResult{Exists: true, Code: "REG-0001"}, nil)
	gw.On("FetchByCode", mock.Anything, "REG-0001").Return(nil, errors.NewServerRejectedError("fetch_by_code", 500, ""))

	f := newTestFlow(t, gw)
	res, err := f.Check(context.Background(), "123456789012")
	require.NoError(t, err)

	assert.Equal(t, Error, res.State)
	assert.NotEqual(t, NotFound, res.State)
	assert.Equal(t, "REG-0001", res.Code)
	assert.True(t, errors.HasCode(res.Err, errors.ErrCodePartialFlow))
	assert.True(t, errors.IsRetryable(res.Err))
	assert.Equal(t, "Registration exists but its details could not be loaded", res.Message)
}

func TestFlow_TransportFailure(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "123456789012").
		Return(nil, errors.NewTransportError("check_identifier", fmt.Errorf("connection refused")))

	recorder := &outcomes{}
	f := NewFlow(gw, WithRecorder(recorder))
	res, err := f.Check(context.Background(), "123456789012")
	require.NoError(t, err)

	assert.Equal(t, Error, res.State)
	assert.Equal(t, errors.TransportMessage, res.Message)
	assert.Equal(t, "123456789012", res.Identifier)
	assert.Equal(t, []string{"lookup:error"}, recorder.seen)
	gw.AssertNotCalled(t, "FetchByCode", mock.Anything, mock.Anything)
}

func TestFlow_BusyWhileChecking(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "123456789012").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.CheckResult{Exists: false}, nil).Once()

	f := newTestFlow(t, gw)
	done := make(chan Result, 1)
	go func() {
		res, _ := f.Check(context.Background(), "123456789012")
		done <- res
	}()
	<-started

	assert.Equal(t, Checking, f.Result().State)
	_, err := f.Check(context.Background(), "123456789012")
	assert.ErrorIs(t, err, ErrBusy)

	f.Dismiss()
	assert.Equal(t, Checking, f.Result().State)

	close(release)
	assert.Equal(t, NotFound, (<-done).State)
	gw.AssertNumberOfCalls(t, "CheckIdentifier", 1)
}

func TestFlow_Dismiss(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "000000000000").Return(&models.CheckResult{}, nil)

	f := newTestFlow(t, gw)
	_, err := f.Check(context.Background(), "000000000000")
	require.NoError(t, err)
	require.Equal(t, NotFound, f.Result().State)

	f.Dismiss()
	assert.Equal(t, Result{State: Idle}, f.Result())
}

func TestFlow_DisposeIgnoresLateResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := new(MockGateway)
	gw.On("CheckIdentifier", mock.Anything, "123456789012").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.CheckResult{Exists: false}, nil)

	f := newTestFlow(t, gw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.Check(context.Background(), "123456789012")
	}()
	<-started
	f.Dispose()
	close(release)
	<-done

	assert.Equal(t, Checking, f.Result().State)
	_, err := f.Check(context.Background(), "123456789012")
	assert.ErrorIs(t, err, ErrDisposed)
}

type outcomes struct{ seen []string }

func (o *outcomes) RecordOutcome(_ context.Context, flow, outcome string) {
	o.seen = append(o.seen, flow+":"+outcome)
}
