package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCatalogRefresh = "catalog:refresh"
	TaskTypeDealAlerts     = "deals:alerts"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// CatalogRefreshPayload configures a catalog snapshot refresh run.
type CatalogRefreshPayload struct {
	// Force bypasses the cached snapshot even when it is still fresh.
	Force bool `json:"force"`
}

// DealAlertsPayload configures a notification fan-out run.
type DealAlertsPayload struct {
	// Kind selects which subscription the run targets, e.g. "new_deals".
	Kind string `json:"kind"`
}

// NewCatalogRefreshTask builds the periodic catalog refresh task.
func NewCatalogRefreshTask(force bool) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogRefreshPayload{Force: force})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCatalogRefresh, payload, asynq.Queue(QueueDefault)), nil
}

// NewDealAlertsTask builds a notification fan-out task for one subscription kind.
func NewDealAlertsTask(kind string) (*asynq.Task, error) {
	payload, err := json.Marshal(DealAlertsPayload{Kind: kind})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeDealAlerts, payload, asynq.Queue(QueueLow)), nil
}
