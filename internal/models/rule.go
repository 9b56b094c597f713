package models

// RuleState is the enabled/disabled flag of an EventBridge rule
type RuleState int

const (
	RuleDisabled RuleState = iota
	RuleEnabled
)

func (s RuleState) String() string {
	switch s {
	case RuleDisabled:
		return "DISABLED"
	case RuleEnabled:
		return "ENABLED"
	default:
		return "UNKNOWN"
	}
}

// RuleRef identifies a rule on a specific event bus
type RuleRef struct {
	EventBus string
	Name     string
}

func (r RuleRef) String() string {
	return r.EventBus + "|" + r.Name
}
