package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"regdesk/internal/common/config"
)

// JobHandler is implemented by every registration worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
	GetTaskType() string
}

// StartWorker opens a job worker for handler using the per-worker settings.
func StartWorker(client zbc.Client, handler JobHandler, wcfg config.WorkerConfig, log *zap.Logger) worker.JobWorker {
	taskType := handler.GetTaskType()
	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	timeoutMs := wcfg.Timeout
	if timeoutMs <= 0 {
		timeoutMs = 30000
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobs).
		Timeout(config.GetDuration(timeoutMs)).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", maxJobs),
		zap.Int("timeoutMs", timeoutMs),
	)
	return w
}
