package submitregistration

import (
	"context"

	"regdesk/internal/catalog"
	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/intake"
	"regdesk/internal/notify"
)

type Service struct {
	config     *Config
	gateway    gateway.Gateway
	catalog    *catalog.Catalog
	notifier   notify.Notifier
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
		catalog:    deps.Catalog,
		notifier:   deps.Notifier,
		normalizer: normalizer,
		recorder:   deps.Recorder,
		logger:     log,
	}
}

// Execute walks one job through a fresh intake machine: fill the draft,
// continue to review, confirm. A rule failure comes back as LOCAL_VALIDATION
// carrying the rule's message.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts := []intake.Option{
		intake.WithValidator(intake.NewValidator(s.catalog)),
		intake.WithNormalizer(s.normalizer),
		intake.WithLogger(s.logger),
	}
	if s.notifier != nil {
		opts = append(opts, intake.WithNotifier(s.notifier))
	}
	if s.recorder != nil {
		opts = append(opts, intake.WithRecorder(s.recorder))
	}
	m := intake.NewMachine(s.gateway, opts...)
	defer m.Dispose()

	err := m.Edit(func(d *intake.Draft) {
		d.FullName = input.Name
		d.Village = input.Village
		d.SetDistrict(input.District)
		d.BlockID = input.Block
		d.Category = input.Category
		d.SetMobile(input.Mobile)
		d.SetNationalID(input.Aadhaar)
	})
	if err != nil {
		return nil, err
	}

	res, err := m.Continue()
	if err != nil {
		return nil, err
	}
	if !res.OK {
		s.logger.Info("Registration rejected by intake rules", map[string]interface{}{
			"field":   string(res.Field),
			"message": res.Message,
		})
		return nil, res.Err()
	}

	reg, err := m.Confirm(ctx)
	if err != nil {
		return nil, err
	}

	out := &Output{Success: true, RegistrationCode: reg.Code}
	if notice := m.Snapshot().Notice; notice != nil {
		out.Message = notice.Message
	}
	return out, nil
}
