package submitregistration

import (
	"context"
	"fmt"
	"time"

	"regdesk/internal/catalog"
	"regdesk/internal/common/camunda"
	"regdesk/internal/common/config"
	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/metrics"
	"regdesk/internal/common/observability"
	"regdesk/internal/common/validation"
	"regdesk/internal/gateway"
	"regdesk/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

const (
	TaskType   = "registration.intake.submit"
	configName = "submit-registration"
)

type Handler struct {
	config     *Config
	logger     logger.Logger
	camunda    *camunda.Client
	service    *Service
	errHandler *errors.ErrorHandler
	jobWorker  worker.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger

	Gateway  gateway.Gateway
	Catalog  *catalog.Catalog
	Notifier notify.Notifier
	Recorder observability.OutcomeRecorder
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", configName, err)
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("invalid configuration for %s: gateway is required", configName)
	}
	if err := validation.ValidateTaskType(TaskType); err != nil {
		return nil, err
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	normalizer := errors.ServerFirst("")
	if opts.AppConfig != nil {
		normalizer = opts.AppConfig.Normalizer()
	}

	handler := &Handler{
		config:     workerConfig,
		logger:     loggerInstance,
		camunda:    opts.Camunda,
		errHandler: errors.NewErrorHandler(loggerInstance),
	}

	handler.service = NewService(ServiceDependencies{
		Gateway:    opts.Gateway,
		Catalog:    opts.Catalog,
		Notifier:   opts.Notifier,
		Normalizer: normalizer,
		Recorder:   opts.Recorder,
		Logger:     loggerInstance.WithFields(map[string]interface{}{"worker": TaskType}),
	}, workerConfig)

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing registration submission", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	if !h.config.Enabled {
		h.completeJob(ctx, client, job, &Output{
			Success: false,
			Message: "Registration submission disabled",
		})
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInputParsingFailedError(
			fmt.Errorf("validation errors: %v", result.GetErrorMessages()))
	}

	return &Input{
		Name:     variables["name"].(string),
		Village:  variables["village"].(string),
		District: variables["district"].(string),
		Block:    variables["block"].(string),
		Mobile:   variables["mobile"].(string),
		Aadhaar:  variables["aadhaar"].(string),
		Category: variables["category"].(string),
	}, nil
}

// outputVariables maps output onto the process variables the job completes with.
func outputVariables(output *Output) (map[string]interface{}, error) {
	variables := map[string]interface{}{
		"registrationSubmitted": output.Success,
		"registrationMessage":   output.Message,
	}
	if output.RegistrationCode != "" {
		variables["registrationCode"] = output.RegistrationCode
	}

	result := validation.ValidateInput(variables, GetOutputSchema())
	if !result.Valid {
		return nil, errors.AsStandard(fmt.Errorf("output validation errors: %v", result.GetErrorMessages()))
	}
	return variables, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables, err := outputVariables(output)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	err = h.send(ctx, "complete_job", func(ctx context.Context) error {
		_, err := request.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}
	h.logger.Info("Registration submission completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"success": output.Success,
		"code":    output.RegistrationCode,
		"worker":  TaskType,
	})
}

// send retries transient broker failures when a Zeebe client is wired.
func (h *Handler) send(ctx context.Context, operation string, fn func(context.Context) error) error {
	if h.camunda == nil {
		return fn(ctx)
	}
	return h.camunda.ExecuteWithRetry(ctx, operation, fn)
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Register opens the job worker on the shared Zeebe client.
func (h *Handler) Register(zlog *zap.Logger) error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", map[string]interface{}{
			"worker": TaskType,
		})
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required to register", configName)
	}
	h.jobWorker = camunda.StartWorker(h.camunda.GetClient(), h, config.WorkerConfig{
		Enabled:       h.config.Enabled,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       int(h.config.Timeout / time.Millisecond),
	}, zlog)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", map[string]interface{}{
			"worker": TaskType,
		})
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return fmt.Errorf("camunda client not configured")
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

// Execute runs the submission without a job, for direct use and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

func extractErrorCode(err error) string {
	if stdErr := errors.AsStandard(err); stdErr != nil {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[configName]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}
	return cfg
}
