package enums

import "fmt"

// ActorType identifies what kind of identity triggered an audited action.
type ActorType string

const (
	ActorTypeSystem    ActorType = "system"
	ActorTypeAdmin     ActorType = "admin"
	ActorTypeScheduler ActorType = "scheduler"
)

var validActorTypes = []ActorType{
	ActorTypeSystem,
	ActorTypeAdmin,
	ActorTypeScheduler,
}

// IsValid reports whether the value is a known ActorType.
func (a ActorType) IsValid() bool {
	for _, candidate := range validActorTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorType converts raw input into an ActorType.
func ParseActorType(value string) (ActorType, error) {
	for _, candidate := range validActorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor type %q", value)
}
