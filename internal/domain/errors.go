package domain

import "errors"

// ErrNotFound is returned when a requested city does not exist on the remote.
// The store maps this to an error status without touching cached state.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing city name, no coordinates chosen).
var ErrValidation = errors.New("validation error")

// ErrUnavailable is returned for transport-level failures: the remote or the
// geocoder could not be reached, or its response could not be decoded.
var ErrUnavailable = errors.New("service unavailable")

// ErrUnresolvable is returned when a reverse-geocode lookup succeeds but the
// coordinates do not resolve to a city (no country code in the payload).
var ErrUnresolvable = errors.New("location does not resolve to a city")
