package checkregistration

import (
	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/models"
)

type Input struct {
	Aadhaar string `json:"aadhaar"`
}

type Output struct {
	Found        bool                 `json:"found"`
	Code         string               `json:"code,omitempty"`
	Registration *models.Registration `json:"registration,omitempty"`
	Message      string               `json:"message,omitempty"`
}

type ServiceDependencies struct {
	Gateway    gateway.Gateway
	Normalizer errors.Normalizer
	Recorder   observability.OutcomeRecorder
	Logger     logger.Logger
}
