// sieve/pkg/compiler/structs.go
package compiler

// FilterSpec is the raw filter configuration a caller supplies. Entry order is
// significant: it fixes the emission order of the compiled program.
type FilterSpec struct {
	Events             []EventFilter    `json:"events,omitempty"`
	Actions            []ActionRef      `json:"actions,omitempty"`
	Properties         []PropertyFilter `json:"properties,omitempty"`
	FilterTestAccounts bool             `json:"filter_test_accounts,omitempty"`
}

// PropertyFilter is a single property condition. Value may be a string, a
// number, a bool, or a list of those.
type PropertyFilter struct {
	Key            string      `json:"key"`
	Value          interface{} `json:"value,omitempty"`
	Operator       string      `json:"operator"`
	Type           string      `json:"type"`
	GroupTypeIndex *int        `json:"group_type_index,omitempty"`
}

// EventFilter matches an event by name (empty ID means all events) AND all of
// its listed properties.
type EventFilter struct {
	ID         string           `json:"id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Type       string           `json:"type,omitempty"`
	Order      int              `json:"order,omitempty"`
	Properties []PropertyFilter `json:"properties,omitempty"`
}

// ActionRef references an externally stored Action by id. The id arrives as a
// string or a number depending on the config source.
type ActionRef struct {
	ID    interface{} `json:"id"`
	Name  string      `json:"name,omitempty"`
	Type  string      `json:"type,omitempty"`
	Order int         `json:"order,omitempty"`
}

// Action is the resolved record an ActionRef points at. Resolution happens
// before compilation; the compiler treats these as a read-only snapshot.
type Action struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name,omitempty"`
	Steps []ActionStep `json:"steps,omitempty"`
}

// ActionStep is one alternative match condition within an Action. Steps are
// OR'd; everything inside a step is AND'd.
type ActionStep struct {
	Event       string           `json:"event,omitempty"`
	URL         string           `json:"url,omitempty"`
	URLMatching string           `json:"url_matching,omitempty"`
	Properties  []PropertyFilter `json:"properties,omitempty"`
}

// URL matching modes for action steps.
const (
	URLMatchContains = "contains"
	URLMatchExact    = "exact"
	URLMatchRegex    = "regex"
)

// Property scopes recognized by the operator resolver.
const (
	PropertyTypeEvent  = "event"
	PropertyTypePerson = "person"
	PropertyTypeGroup  = "group"
)

// AllEventsMarker in an EventFilter ID matches every event, so no event-name
// condition is emitted for it.
const AllEventsMarker = "$all"
