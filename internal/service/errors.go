package service

import "errors"

// ErrCheckoutUnavailable is returned by checkout operations when the server
// runs without a Temporal connection.
var ErrCheckoutUnavailable = errors.New("checkout workflow unavailable")

// ErrCheckoutNotFound is returned when no checkout with the id exists for the
// calling traveler. Another traveler's checkout is reported the same way.
var ErrCheckoutNotFound = errors.New("checkout not found")
