package intake

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
	"regdesk/internal/models"
	"regdesk/internal/notify"
)

// State of the intake machine.
type State int

const (
	Editing State = iota
	Reviewing
	Submitting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Reviewing:
		return "reviewing"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNotEditing   = stderrors.New("intake: draft can only change while editing")
	ErrNotReviewing = stderrors.New("intake: not reviewing")
	ErrDisposed     = stderrors.New("intake: machine disposed")
)

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	State State
	Draft Draft
	// Message is the user-visible text of the last validation or submission
	// failure, empty when there is none.
	Message string
	Err     error
	Notice  *models.Notice
	Preview string
}

// Machine drives one intake desk through Editing, Reviewing and Submitting.
// At most one submission is in flight; the state guard enforces it.
type Machine struct {
	gateway    gateway.Gateway
	validator  *Validator
	notifier   notify.Notifier
	normalizer errors.Normalizer
	recorder   observability.OutcomeRecorder
	logger     logger.Logger

	mu         sync.Mutex
	state      State
	draft      Draft
	message    string
	err        error
	notice     *models.Notice
	preview    string
	previewGen uint64
	disposed   bool
}

type Option func(*Machine)

func WithValidator(v *Validator) Option {
	return func(m *Machine) { m.validator = v }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

func WithNormalizer(n errors.Normalizer) Option {
	return func(m *Machine) { m.normalizer = n }
}

func WithRecorder(r observability.OutcomeRecorder) Option {
	return func(m *Machine) { m.recorder = r }
}

func WithLogger(l logger.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

func NewMachine(gw gateway.Gateway, opts ...Option) *Machine {
	m := &Machine{
		gateway:    gw,
		validator:  NewValidator(nil),
		normalizer: errors.ServerFirst(""),
		logger:     logger.NewNoOpLogger(),
		state:      Editing,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithFields(map[string]interface{}{"component": "intake"})
	return m
}

// Edit applies fn to the draft. Only allowed while editing. A district
// assigned directly, without SetDistrict, still clears a block that fn left
// untouched.
func (m *Machine) Edit(fn func(d *Draft)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrDisposed
	}
	if m.state != Editing {
		return ErrNotEditing
	}
	district, block := m.draft.DistrictID, m.draft.BlockID
	fn(&m.draft)
	if m.draft.DistrictID != district && m.draft.BlockID == block {
		m.draft.BlockID = ""
	}
	return nil
}

// CheckField validates a single field without changing state.
func (m *Machine) CheckField(field FieldID) ValidationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validator.CheckField(m.draft, field)
}

// Continue moves to Reviewing when the draft validates. On failure the machine
// stays in Editing and the first failing rule's message is kept.
func (m *Machine) Continue() (ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ValidationResult{}, ErrDisposed
	}
	if m.state != Editing {
		return ValidationResult{}, ErrNotEditing
	}

	res := m.validator.Validate(m.draft)
	if !res.OK {
		m.message = res.Message
		m.err = res.Err()
		m.logger.Debug("Draft failed validation", map[string]interface{}{
			"field": string(res.Field),
		})
		return res, nil
	}

	m.message, m.err = "", nil
	m.transition(Reviewing)
	return res, nil
}

// Back returns from Reviewing to Editing with the draft untouched.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrDisposed
	}
	if m.state != Reviewing {
		return ErrNotReviewing
	}
	m.transition(Editing)
	return nil
}

// Confirm submits the reviewed draft. Calls made outside Reviewing, including
// while a submission is already running, return ErrNotReviewing and never
// reach the gateway.
func (m *Machine) Confirm(ctx context.Context) (*models.Registration, error) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil, ErrDisposed
	}
	if m.state != Reviewing {
		m.mu.Unlock()
		return nil, ErrNotReviewing
	}
	m.transition(Submitting)
	draft := m.draft.Clone()
	m.mu.Unlock()

	reg, err := m.gateway.CreateRegistration(ctx, draft.Request())

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		m.logger.Debug("Dropping submission result after dispose", nil)
		return reg, err
	}

	if err != nil {
		m.transition(Failed)
		m.message = m.normalizer.Message(err)
		m.err = err
		m.notice = nil
		m.transition(Editing)
		m.mu.Unlock()

		m.logger.Warn("Registration submission failed", map[string]interface{}{
			"error":     err.Error(),
			"retryable": errors.IsRetryable(err),
			"aadhaar":   logger.MaskID(draft.NationalID),
		})
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		m.record(ctx, "failed")
		return nil, err
	}

	notice := models.Notice{
		Kind:    models.NoticeRegistered,
		Message: fmt.Sprintf("Registered %s (%s)", draft.FullName, reg.Code),
		Name:    draft.FullName,
		Mobile:  draft.Mobile,
		Code:    reg.Code,
	}
	m.transition(Done)
	m.draft.Reset()
	m.preview = ""
	m.previewGen++
	m.message, m.err = "", nil
	m.notice = &notice
	m.transition(Editing)
	m.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues("done").Inc()
	m.record(ctx, "done")

	if m.notifier != nil {
		if nerr := m.notifier.Notify(ctx, notice); nerr != nil {
			m.logger.Warn("Registration notice not delivered", map[string]interface{}{
				"code":  reg.Code,
				"error": nerr.Error(),
			})
		}
	}
	return reg, nil
}

// AttachPhoto sets the draft photo and renders its preview in the background.
// A preview failure leaves the preview empty and does not affect submission.
func (m *Machine) AttachPhoto(p *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrDisposed
	}
	if m.state != Editing {
		return ErrNotEditing
	}
	if err := m.draft.AttachPhoto(p); err != nil {
		return err
	}

	m.previewGen++
	m.preview = ""
	if p == nil {
		return nil
	}
	gen := m.previewGen
	go func() {
		url, err := PreviewPhoto(p)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.disposed || gen != m.previewGen {
			return
		}
		if err != nil {
			m.logger.Debug("Photo preview unavailable", map[string]interface{}{"error": err.Error()})
			return
		}
		m.preview = url
	}()
	return nil
}

// Dispose detaches the machine. Results of requests still in flight are dropped.
func (m *Machine) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.previewGen++
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		State:   m.state,
		Draft:   m.draft.Clone(),
		Message: m.message,
		Err:     m.err,
		Preview: m.preview,
	}
	if m.notice != nil {
		n := *m.notice
		s.Notice = &n
	}
	return s
}

// transition must be called with mu held.
func (m *Machine) transition(to State) {
	from := m.state
	m.state = to
	metrics.IntakeTransitions.WithLabelValues(from.String(), to.String()).Inc()
	m.logger.Debug("Intake transition", map[string]interface{}{
		"from": from.String(),
		"to":   to.String(),
	})
}

func (m *Machine) record(ctx context.Context, outcome string) {
	if m.recorder != nil {
		m.recorder.RecordOutcome(ctx, "intake", outcome)
	}
}
