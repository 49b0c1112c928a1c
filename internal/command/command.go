// Package command replays scripted engine commands and renders their results.
package command

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spec-kit/milestone-tracker/internal/service"
)

// Command names understood by the processor.
const (
	StartTestingPhase          = "startTestingPhase"
	ReportTicket               = "reportTicket"
	ViewTickets                = "viewTickets"
	CreateMilestone            = "createMilestone"
	ViewMilestones             = "viewMilestones"
	AssignTicket               = "assignTicket"
	ViewAssignedTickets        = "viewAssignedTickets"
	UndoAssignTicket           = "undoAssignTicket"
	AddComment                 = "addComment"
	UndoAddComment             = "undoAddComment"
	ChangeStatus               = "changeStatus"
	UndoChangeStatus           = "undoChangeStatus"
	ViewTicketHistory          = "viewTicketHistory"
	Search                     = "search"
	ViewNotifications          = "viewNotifications"
	CustomerImpactReport       = "generateCustomerImpactReport"
	TicketRiskReport           = "generateTicketRiskReport"
	ResolutionEfficiencyReport = "generateResolutionEfficiencyReport"
	AppStabilityReport         = "appStabilityReport"
	PerformanceReport          = "generatePerformanceReport"
	LostInvestors              = "lostInvestors"
)

// Command is one scripted input record. Only the fields a command needs are
// read.
type Command struct {
	Command      string                    `json:"command"`
	Username     string                    `json:"username"`
	Timestamp    string                    `json:"timestamp"`
	TicketID     *int                      `json:"ticketID,omitempty"`
	Comment      string                    `json:"comment,omitempty"`
	Params       service.TicketReportInput `json:"params"`
	Name         string                    `json:"name,omitempty"`
	DueDate      string                    `json:"dueDate,omitempty"`
	Tickets      []int                     `json:"tickets,omitempty"`
	AssignedDevs []string                  `json:"assignedDevs,omitempty"`
	BlockingFor  []string                  `json:"blockingFor,omitempty"`
	SearchType   string                    `json:"searchType,omitempty"`
	Filters      service.SearchFilters     `json:"filters"`
}

// alwaysEmitted reports whether a command's result is written even on
// success: every view plus search and the reports.
func alwaysEmitted(name string) bool {
	switch {
	case strings.HasPrefix(name, "view"):
		return true
	case name == Search, name == AppStabilityReport:
		return true
	case strings.HasPrefix(name, "generate"):
		return true
	default:
		return false
	}
}

// timeSensitive commands run the notification and escalation checks at the
// command date before executing.
func timeSensitive(name string) bool {
	return alwaysEmitted(name) || name == AssignTicket
}

// Field is one payload key of a result, kept in output order.
type Field struct {
	Key   string
	Value any
}

// Result is the rendered outcome of one command. Exactly one of Error or a
// success status is written, followed by the payload fields in order.
type Result struct {
	Command   string
	Username  string
	Timestamp string
	Error     string
	Payload   []Field
}

// Failed reports whether the command ended with an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Get returns the payload value stored under key.
func (r Result) Get(key string) (any, bool) {
	for _, f := range r.Payload {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes command, username and timestamp, then status or error,
// then the payload.
func (r Result) MarshalJSON() ([]byte, error) {
	fields := make([]Field, 0, 4+len(r.Payload))
	fields = append(fields,
		Field{Key: "command", Value: r.Command},
		Field{Key: "username", Value: r.Username},
		Field{Key: "timestamp", Value: r.Timestamp},
	)
	if r.Failed() {
		fields = append(fields, Field{Key: "error", Value: r.Error})
	} else {
		fields = append(fields, Field{Key: "status", Value: "success"})
		fields = append(fields, r.Payload...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
