package enums

import "fmt"

// ActionType versions line items. A DELETE row supersedes every earlier
// version of the same line group; historical rows are never mutated.
type ActionType string

const (
	ActionTypeCreate ActionType = "CREATE"
	ActionTypeUpdate ActionType = "UPDATE"
	ActionTypeDelete ActionType = "DELETE"
)

var validActionTypes = []ActionType{
	ActionTypeCreate,
	ActionTypeUpdate,
	ActionTypeDelete,
}

// IsValid reports whether the value matches the canonical action type enum.
func (a ActionType) IsValid() bool {
	for _, candidate := range validActionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionType converts raw input into ActionType.
func ParseActionType(value string) (ActionType, error) {
	for _, candidate := range validActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action type %q", value)
}
