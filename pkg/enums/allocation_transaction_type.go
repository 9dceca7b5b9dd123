package enums

import "fmt"

// AllocationTransactionType is the direction of an allocation agreement line.
// Only the "Allocated from" side earns compliance units; the other side
// records zero.
type AllocationTransactionType string

const (
	AllocationAllocatedFrom AllocationTransactionType = "Allocated from"
	AllocationAllocatedTo   AllocationTransactionType = "Allocated to"
)

var validAllocationTransactionTypes = []AllocationTransactionType{
	AllocationAllocatedFrom,
	AllocationAllocatedTo,
}

// IsValid reports whether the value matches the canonical allocation type enum.
func (a AllocationTransactionType) IsValid() bool {
	for _, candidate := range validAllocationTransactionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAllocationTransactionType converts raw input into AllocationTransactionType.
func ParseAllocationTransactionType(value string) (AllocationTransactionType, error) {
	for _, candidate := range validAllocationTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation transaction type %q", value)
}
