package enums

import "fmt"

// ParentState classifies the approving parent at the moment an approval is
// requested: brand new, already a parent, or an adult who needs an upgrade.
type ParentState string

const (
	ParentStateNew            ParentState = "new"
	ParentStateExistingParent ParentState = "existing_parent"
	ParentStateExistingAdult  ParentState = "existing_adult"
)

var validParentStates = []ParentState{
	ParentStateNew,
	ParentStateExistingParent,
	ParentStateExistingAdult,
}

// String implements fmt.Stringer.
func (p ParentState) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known ParentState.
func (p ParentState) IsValid() bool {
	for _, candidate := range validParentStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseParentState converts raw input into a ParentState.
func ParseParentState(value string) (ParentState, error) {
	for _, candidate := range validParentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid parent state %q", value)
}
