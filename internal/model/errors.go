package model

import "errors"

var (
	// ErrEmptyCookiePayload is returned when a JSON cookie payload has no content.
	ErrEmptyCookiePayload = errors.New("cookie payload is empty")

	// ErrEmptyTarget is returned when a target is blank after trimming.
	ErrEmptyTarget = errors.New("target cannot be empty")

	// ErrInvalidTarget is returned when a target cannot be parsed as a URL
	// or has no host.
	ErrInvalidTarget = errors.New("invalid target URL")

	// ErrInvalidOnionTarget is returned when a target host ends in .onion but
	// is not a valid v3 onion address.
	ErrInvalidOnionTarget = errors.New("invalid onion address in target")

	// ErrInvalidOnionAddress is returned when a host ends in .onion but is not
	// a valid v3 address.
	ErrInvalidOnionAddress = errors.New("invalid onion address")

	// ErrV2AddressDeprecated is returned for 16 character v2 addresses,
	// which stopped working in October 2021.
	ErrV2AddressDeprecated = errors.New("v2 onion addresses are deprecated and no longer functional")
)
