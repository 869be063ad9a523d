package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of a lifecycle event
type EventType string

const (
	EventCustomerAnalyzed  EventType = "customer.analyzed"
	EventCustomerSegmented EventType = "customer.segmented"
	EventMetricsUpdated    EventType = "metrics.updated"
	EventStrategyComplete  EventType = "strategy.analysis_complete"
	EventHealthWarning     EventType = "health.warning"
	EventAlertRaised       EventType = "alert.raised"
	EventWorkflowRequested EventType = "workflow.requested"
	EventWorkflowCompleted EventType = "workflow.completed"
	EventWorkflowFailed    EventType = "workflow.failed"
)

// EventSeverity represents the severity of an event
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event is the envelope carried on the lifecycle event bus
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	Severity    EventSeverity          `json:"severity"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      string                 `json:"source"`
	CustomerID  string                 `json:"customer_id,omitempty"`
	Description string                 `json:"description"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent creates an event with a fresh id and info severity.
func NewEvent(eventType EventType, source, description string) Event {
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    SeverityInfo,
		Timestamp:   time.Now(),
		Source:      source,
		Description: description,
		Payload:     make(map[string]interface{}),
	}
}

// WithSeverity sets the event severity
func (e Event) WithSeverity(severity EventSeverity) Event {
	e.Severity = severity
	return e
}

// WithCustomerID sets the customer id the event concerns
func (e Event) WithCustomerID(id string) Event {
	e.CustomerID = id
	return e
}

// WithPayload adds a payload entry to the event
func (e Event) WithPayload(key string, value interface{}) Event {
	if e.Payload == nil {
		e.Payload = make(map[string]interface{})
	}
	e.Payload[key] = value
	return e
}

// Alert is a surfaced operational problem kept by the orchestrator
type Alert struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Severity  EventSeverity `json:"severity"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewAlert creates an alert with a fresh id.
func NewAlert(alertType string, severity EventSeverity, message string) Alert {
	return Alert{
		ID:        uuid.New().String(),
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
