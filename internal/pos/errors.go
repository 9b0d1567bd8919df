package pos

import "errors"

var (
	// ErrOrderNotFound indicates a missing sale order.
	ErrOrderNotFound = errors.New("pos: sale order not found")
	// ErrReturnNotFound indicates a missing sale return.
	ErrReturnNotFound = errors.New("pos: sale return not found")
	// ErrNoLines indicates an order without product lines.
	ErrNoLines = errors.New("pos: order requires at least one line")
	// ErrReturnExceedsOrdered indicates a return quantity above what is
	// still returnable on the order.
	ErrReturnExceedsOrdered = errors.New("pos: return quantity exceeds returnable quantity")
)
