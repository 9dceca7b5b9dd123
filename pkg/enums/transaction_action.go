package enums

import "fmt"

// TransactionAction maps to the transaction_action enum in Postgres.
// Adjustment rows are immutable; Reserved rows may transition to Adjustment
// (committed) or Released (cancelled), at most once.
type TransactionAction string

const (
	TransactionActionAdjustment TransactionAction = "Adjustment"
	TransactionActionReserved   TransactionAction = "Reserved"
	TransactionActionReleased   TransactionAction = "Released"
)

var validTransactionActions = []TransactionAction{
	TransactionActionAdjustment,
	TransactionActionReserved,
	TransactionActionReleased,
}

// IsValid reports whether the value matches the canonical transaction action enum.
func (a TransactionAction) IsValid() bool {
	for _, candidate := range validTransactionActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseTransactionAction converts raw input into TransactionAction.
func ParseTransactionAction(value string) (TransactionAction, error) {
	for _, candidate := range validTransactionActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction action %q", value)
}
