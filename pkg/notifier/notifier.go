// Package notifier contains the core domain types for the LOE outage
// schedule notification service.
package notifier

// Schedule is the structured result of parsing one schedule edition for a
// specific group. Date and AsOf are empty when the source text did not
// contain them; the "?" placeholder is substituted only when the message is
// rendered. GroupLine is never empty: it is either the matched schedule line
// or a synthesized "no data" placeholder.
type Schedule struct {
	Date      string // schedule date, normally DD.MM.YYYY
	AsOf      string // when the source last updated the schedule
	GroupLine string // the line naming the group's outage windows
}

// Subscriber is one Telegram chat watching a group. An empty Group means the
// chat has not configured one yet; an empty LastMessage means nothing has
// been delivered since the group was (re)configured.
type Subscriber struct {
	Group       string `json:"group,omitempty"`        // group identifier, e.g. "3.1"
	LastMessage string `json:"last_message,omitempty"` // last notification text delivered
}

// Subscribers is the full persisted store, keyed by chat ID.
type Subscribers map[string]*Subscriber
