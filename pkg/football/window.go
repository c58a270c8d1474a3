package football

import "fmt"

// Window is one limit/offset pagination request.
type Window struct {
	Limit  int
	Offset int
}

// Validate checks that the limit is positive and the offset non-negative.
func (w Window) Validate() error {
	if w.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive (got %d)", ErrInvalidWindow, w.Limit)
	}
	if w.Offset < 0 {
		return fmt.Errorf("%w: offset must be non-negative (got %d)", ErrInvalidWindow, w.Offset)
	}
	return nil
}

// Next returns the window that follows after consuming n raw records.
func (w Window) Next(n, limit int) Window {
	return Window{Limit: limit, Offset: w.Offset + n}
}

func (w Window) String() string {
	return fmt.Sprintf("limit=%d offset=%d", w.Limit, w.Offset)
}
