package notice

import (
	"fmt"
	"time"

	"civicgov.org/internal/calendar"
)

// Verdict is the outcome of a single compliance evaluation.
type Verdict string

const (
	VerdictCompliant Verdict = "compliant"
	VerdictLate      Verdict = "late"
	VerdictUnknown   Verdict = "unknown"
)

// Evaluation captures one notice-timeliness verdict together with the
// inputs that produced it. Each posted notice stores its own evaluation;
// later postings never rewrite earlier verdicts.
type Evaluation struct {
	Verdict     Verdict   `json:"verdict"`
	RequiredBy  time.Time `json:"required_by"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	LeadHours   int       `json:"lead_hours"`
	Explanation string    `json:"explanation"`
}

// Evaluate determines whether a notice posted at postedAt satisfies the
// lead-time rule for a meeting starting at scheduledStart. Emergency
// meetings are statutorily exempt and always evaluate as compliant.
// A posting that lands exactly on the deadline is compliant.
func Evaluate(cal *calendar.Calendar, emergency bool, scheduledStart, postedAt time.Time, leadHours int) Evaluation {
	scheduledStart = scheduledStart.UTC()
	postedAt = postedAt.UTC()

	if emergency {
		return Evaluation{
			Verdict:     VerdictCompliant,
			RequiredBy:  scheduledStart,
			PostedAt:    postedAt,
			LeadHours:   0,
			Explanation: "emergency meeting: exempt from advance-notice requirement by statute",
		}
	}

	requiredBy := cal.SubtractBusinessHours(scheduledStart, leadHours)
	ev := Evaluation{
		RequiredBy: requiredBy,
		PostedAt:   postedAt,
		LeadHours:  leadHours,
	}
	if !postedAt.After(requiredBy) {
		ev.Verdict = VerdictCompliant
		ev.Explanation = fmt.Sprintf("notice posted %s, %d business hours before the %s start",
			postedAt.Format(time.RFC3339), leadHours, scheduledStart.Format(time.RFC3339))
		return ev
	}
	ev.Verdict = VerdictLate
	ev.Explanation = fmt.Sprintf("notice posted %s, after the %d-business-hour deadline of %s",
		postedAt.Format(time.RFC3339), leadHours, requiredBy.Format(time.RFC3339))
	return ev
}

// Pending describes the state before any notice has been posted: the
// deadline is already computable but no verdict can be rendered.
func Pending(cal *calendar.Calendar, emergency bool, scheduledStart time.Time, leadHours int) Evaluation {
	scheduledStart = scheduledStart.UTC()
	if emergency {
		return Evaluation{
			Verdict:     VerdictUnknown,
			RequiredBy:  scheduledStart,
			Explanation: "no notice posted yet; emergency meetings are exempt from the lead-time rule",
		}
	}
	return Evaluation{
		Verdict:     VerdictUnknown,
		RequiredBy:  cal.SubtractBusinessHours(scheduledStart, leadHours),
		LeadHours:   leadHours,
		Explanation: "no notice posted yet",
	}
}
