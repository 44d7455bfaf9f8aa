package checkregistration

import (
	"context"
	"fmt"

	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/lookup"
)

type Service struct {
	config     *Config
	gateway    gateway.Gateway
	normalizer errors.Normalizer
	recorder   observability.OutcomeRecorder
	logger     logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	normalizer := deps.Normalizer
	if len(normalizer.Precedence) == 0 {
		normalizer = errors.ServerFirst(normalizer.Fallback)
	}
	return &Service{
		config:     config,
		gateway:    deps.Gateway,
		normalizer: normalizer,
		recorder:   deps.Recorder,
		logger:     log,
	}
}

// Execute runs a single lookup. NotFound completes the job normally; an
// invalid identifier or a failed call comes back as the flow's error.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts := []lookup.Option{
		lookup.WithNormalizer(s.normalizer),
		lookup.WithLogger(s.logger),
	}
	if s.recorder != nil {
		opts = append(opts, lookup.WithRecorder(s.recorder))
	}
	flow := lookup.NewFlow(s.gateway, opts...)
	defer flow.Dispose()

	res, err := flow.Check(ctx, input.Aadhaar)
	if err != nil {
		return nil, err
	}

	switch res.State {
	case lookup.Found:
		return &Output{Found: true, Code: res.Code, Registration: res.Registration}, nil
	case lookup.NotFound:
		return &Output{Found: false, Message: res.Message}, nil
	case lookup.Idle, lookup.Error:
		return nil, res.Err
	default:
		return nil, fmt.Errorf("lookup ended in unexpected state %s", res.State)
	}
}
