package submitregistration

import (
	"regdesk/internal/catalog"
	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/notify"
)

// Input mirrors the registration form as process variables.
type Input struct {
	Name     string `json:"name"`
	Village  string `json:"village"`
	District string `json:"district"`
	Block    string `json:"block"`
	Mobile   string `json:"mobile"`
	Aadhaar  string `json:"aadhaar"`
	Category string `json:"category"`
}

type Output struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RegistrationCode string `json:"registrationCode,omitempty"`
}

type ServiceDependencies struct {
	Gateway    gateway.Gateway
	Catalog    *catalog.Catalog
	Notifier   notify.Notifier
	Normalizer errors.Normalizer
	Recorder   observability.OutcomeRecorder
	Logger     logger.Logger
}
