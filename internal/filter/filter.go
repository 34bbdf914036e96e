// Package filter decides whether an alert transition deserves a notification.
package filter

import "tgalert/internal/alert"

// Rules is the immutable filter configuration.
// An empty Severities set disables severity filtering.
type Rules struct {
	Severities alert.SeveritySet
}

type Reason string

const (
	ReasonRepeat     Reason = "repeat"
	ReasonTransient  Reason = "closed_from_indeterminate"
	ReasonNotWatched Reason = "severity_not_watched"
	ReasonWatched    Reason = "severity_watched"
	ReasonUnfiltered Reason = "no_filter"
)

// Decision is the outcome of Decide. Reason is meant for logs.
type Decision struct {
	Send   bool
	Reason Reason
}

// Decide evaluates the rules in order; the first match wins.
//
//  1. repeats are suppressed
//  2. closed alerts whose previous severity is indeterminate are suppressed
//  3. with a severity filter, closed alerts match on previous severity only,
//     any other status matches on previous or current severity
//  4. without a filter everything is sent
func Decide(ev *alert.Event, r Rules) Decision {
	if ev.Repeat {
		return Decision{Send: false, Reason: ReasonRepeat}
	}
	if ev.Status == alert.StatusClosed && ev.PreviousSeverity == alert.SeverityIndeterminate {
		return Decision{Send: false, Reason: ReasonTransient}
	}
	if r.Severities.Empty() {
		return Decision{Send: true, Reason: ReasonUnfiltered}
	}

	watched := r.Severities.Has(ev.PreviousSeverity)
	if ev.Status != alert.StatusClosed && r.Severities.Has(ev.Severity) {
		watched = true
	}
	if !watched {
		return Decision{Send: false, Reason: ReasonNotWatched}
	}
	return Decision{Send: true, Reason: ReasonWatched}
}

// ShouldNotify reports whether ev should be sent under r.
func ShouldNotify(ev *alert.Event, r Rules) bool {
	return Decide(ev, r).Send
}
