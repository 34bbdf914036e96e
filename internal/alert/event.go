package alert

import (
	"strings"
	"time"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusAssign   Status = "assign"
	StatusAck      Status = "ack"
	StatusShelved  Status = "shelved"
	StatusBlackout Status = "blackout"
	StatusClosed   Status = "closed"
	StatusExpired  Status = "expired"
	StatusUnknown  Status = "unknown"
	StatusNotValid Status = "notValid"
)

type Severity string

const (
	SeveritySecurity      Severity = "security"
	SeverityCritical      Severity = "critical"
	SeverityMajor         Severity = "major"
	SeverityMinor         Severity = "minor"
	SeverityWarning       Severity = "warning"
	SeverityIndeterminate Severity = "indeterminate"
	SeverityInformational Severity = "informational"
	SeverityNormal        Severity = "normal"
	SeverityOK            Severity = "ok"
	SeverityCleared       Severity = "cleared"
	SeverityDebug         Severity = "debug"
	SeverityTrace         Severity = "trace"
)

// Event is a single alert lifecycle transition as reported by the host.
// JSON names follow the alerta API so host payloads decode as-is.
type Event struct {
	ID               string         `json:"id"`
	Resource         string         `json:"resource"`
	Event            string         `json:"event"`
	Environment      string         `json:"environment"`
	Status           Status         `json:"status"`
	Severity         Severity       `json:"severity"`
	PreviousSeverity Severity       `json:"previousSeverity"`
	Customer         string         `json:"customer,omitempty"`
	Text             string         `json:"text"`
	Repeat           bool           `json:"repeat"`
	Service          []string       `json:"service,omitempty"`
	Group            string         `json:"group,omitempty"`
	Value            string         `json:"value,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Attributes       map[string]any `json:"attributes,omitempty"`
	Origin           string         `json:"origin,omitempty"`
	Type             string         `json:"type,omitempty"`
	DuplicateCount   int            `json:"duplicateCount,omitempty"`
	TrendIndication  string         `json:"trendIndication,omitempty"`
	CreateTime       time.Time      `json:"createTime,omitempty"`
	LastReceiveTime  time.Time      `json:"lastReceiveTime,omitempty"`
}

// Fields returns the template mapping for the event.
//
// Keys are snake_case. Attributes are available under "attributes" and are also
// promoted to the top level unless they collide with a built-in key.
// Every built-in key is always present, so templates may test optional ones
// (e.g. {{if .customer}}) without tripping missing-key errors.
func (e *Event) Fields() map[string]any {
	attrs := make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	m := map[string]any{
		"id":                e.ID,
		"resource":          e.Resource,
		"event":             e.Event,
		"environment":       e.Environment,
		"status":            string(e.Status),
		"severity":          string(e.Severity),
		"previous_severity": string(e.PreviousSeverity),
		"customer":          e.Customer,
		"text":              e.Text,
		"repeat":            e.Repeat,
		"service":           append([]string(nil), e.Service...),
		"group":             e.Group,
		"value":             e.Value,
		"tags":              append([]string(nil), e.Tags...),
		"attributes":        attrs,
		"origin":            e.Origin,
		"event_type":        e.Type,
		"duplicate_count":   e.DuplicateCount,
		"trend_indication":  e.TrendIndication,
		"create_time":       e.CreateTime,
		"last_receive_time": e.LastReceiveTime,
	}
	for k, v := range attrs {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

// ShortID is the first 8 characters of the id, as shown by alerta UIs.
func (e *Event) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// SeveritySet is an unordered set of severities. The empty set means "not configured".
type SeveritySet map[Severity]struct{}

// ParseSeverities builds a set from raw names, ignoring blanks and case.
func ParseSeverities(names ...string) SeveritySet {
	s := SeveritySet{}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		s[Severity(n)] = struct{}{}
	}
	return s
}

func (s SeveritySet) Has(sev Severity) bool {
	_, ok := s[sev]
	return ok
}

func (s SeveritySet) Empty() bool { return len(s) == 0 }

// Clone returns an independent copy.
func (s SeveritySet) Clone() SeveritySet {
	out := make(SeveritySet, len(s))
	for sev := range s {
		out[sev] = struct{}{}
	}
	return out
}
