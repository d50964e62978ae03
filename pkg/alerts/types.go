// Package alerts delivers provider status changes to chat and webhook
// endpoints.
package alerts

import (
	"context"
	"fmt"
)

// AlertLevel indicates the severity of a provider status change.
type AlertLevel string

const (
	AlertRecovered AlertLevel = "recovered"
	AlertIssues    AlertLevel = "issues"
	AlertOutage    AlertLevel = "outage"
)

// Alert is a change of the aggregated provider status.
type Alert struct {
	Level             AlertLevel `json:"level"`
	OverallStatus     string     `json:"overall_status"`
	PreviousStatus    string     `json:"previous_status"`
	DownProviders     []string   `json:"down_providers"`
	DegradedProviders []string   `json:"degraded_providers"`
	CheckedAt         string     `json:"checked_at"`
	Message           string     `json:"message"`
}

// Headline is a one-line summary of the transition.
func (a Alert) Headline() string {
	if a.PreviousStatus == "" {
		return fmt.Sprintf("AI API status: %s", a.OverallStatus)
	}
	return fmt.Sprintf("AI API status: %s (was %s)", a.OverallStatus, a.PreviousStatus)
}

// Notifier sends alerts to an external system.
type Notifier interface {
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
