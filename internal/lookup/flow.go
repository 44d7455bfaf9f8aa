// Package lookup checks whether a national identifier is already registered
// and, when it is, loads the stored registration.
package lookup

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/metrics"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/intake"
	"regdesk/internal/models"
)

const (
	InvalidIdentifierMessage = "Please enter a valid 12-digit Aadhaar number"
	NotFoundMessage          = "No registration found for this Aadhaar number"
)

type State int

const (
	Idle State = iota
	Checking
	Found
	NotFound
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrBusy     = stderrors.New("lookup: a check is already running")
	ErrDisposed = stderrors.New("lookup: flow disposed")
)

// Result is what the lookup view shows.
type Result struct {
	State        State
	Identifier   string
	Code         string
	Registration *models.Registration
	Message      string
	Err          error
}

// Flow runs one lookup at a time. It is independent of any intake machine.
type Flow struct {
	gateway    gateway.Gateway
	normalizer errors.Normalizer
	recorder   observability.OutcomeRecorder
	logger     logger.Logger

	mu       sync.Mutex
	result   Result
	disposed bool
}

type Option func(*Flow)

func WithNormalizer(n errors.Normalizer) Option {
	return func(f *Flow) { f.normalizer = n }
}

func WithRecorder(r observability.OutcomeRecorder) Option {
	return func(f *Flow) { f.recorder = r }
}

func WithLogger(l logger.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

func NewFlow(gw gateway.Gateway, opts ...Option) *Flow {
	f := &Flow{
		gateway:    gw,
		normalizer: errors.ServerFirst(""),
		logger:     logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithFields(map[string]interface{}{"component": "lookup"})
	return f
}

// Check looks raw up after digit normalization. An identifier that is not 12
// digits leaves the flow Idle with a local message and makes no call. The
// returned error is only ErrBusy or ErrDisposed; lookup failures are reported
// in the Result.
func (f *Flow) Check(ctx context.Context, raw string) (Result, error) {
	id := intake.NormalizeDigits(raw, intake.NationalIDLength)

	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return Result{}, ErrDisposed
	}
	if f.result.State == Checking {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if len(id) != intake.NationalIDLength {
		f.result = Result{
			State:      Idle,
			Identifier: id,
			Message:    InvalidIdentifierMessage,
			Err:        errors.NewLocalValidationError(string(intake.FieldNationalID), InvalidIdentifierMessage),
		}
		res := f.result
		f.mu.Unlock()
		return res, nil
	}
	f.result = Result{State: Checking, Identifier: id}
	f.mu.Unlock()

	res := f.run(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return res, nil
	}
	f.result = res

	metrics.LookupsTotal.WithLabelValues(res.State.String()).Inc()
	if f.recorder != nil {
		f.recorder.RecordOutcome(ctx, "lookup", res.State.String())
	}
	return res, nil
}

func (f *Flow) run(ctx context.Context, id string) Result {
	fields := map[string]interface{}{"aadhaar": logger.MaskID(id)}

	check, err := f.gateway.CheckIdentifier(ctx, id)
	if err != nil {
		f.logger.Warn("Identifier check failed", withError(fields, err))
		return Result{State: Error, Identifier: id, Message: f.normalizer.Message(err), Err: err}
	}
	if !check.Exists {
		f.logger.Debug("No registration for identifier", fields)
		return Result{
			State:      NotFound,
			Identifier: id,
			Message:    NotFoundMessage,
			Err:        errors.NewNotFoundError("Registration", "aadhaar: "+logger.MaskID(id)),
		}
	}

	reg, err := f.gateway.FetchByCode(ctx, check.Code)
	if err != nil {
		partial := errors.NewPartialFlowError(check.Code, err)
		f.logger.Warn("Registration exists but fetch failed", withError(fields, err))
		return Result{
			State:      Error,
			Identifier: id,
			Code:       check.Code,
			Message:    f.normalizer.Message(partial),
			Err:        partial,
		}
	}

	f.logger.Info("Registration found", map[string]interface{}{
		"aadhaar": logger.MaskID(id),
		"code":    check.Code,
	})
	return Result{State: Found, Identifier: id, Code: check.Code, Registration: reg}
}

// Dismiss clears the identifier and result and returns to Idle. It has no
// effect while a check is running.
func (f *Flow) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result.State == Checking {
		return
	}
	f.result = Result{State: Idle}
}

// Dispose detaches the flow; a check still in flight will not update it.
func (f *Flow) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

func (f *Flow) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	out["retryable"] = errors.IsRetryable(err)
	return out
}
