package domain

import "errors"

var (
	// ErrDuplicateSlug is returned by a store when the slug is already taken.
	// The slug allocator recovers from it; it never reaches HTTP callers.
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrLinkNotFound is returned on lookups and increments of unknown slugs.
	ErrLinkNotFound = errors.New("link not found")
	// ErrInvalidTarget rejects admin-supplied targets that are not absolute http(s) URLs.
	ErrInvalidTarget = errors.New("invalid target url")
	// ErrForbidden is returned for a wrong password or a missing/invalid admin credential.
	ErrForbidden = errors.New("forbidden")
	// ErrAllocationExhausted is returned when the slug allocator runs out of attempts.
	ErrAllocationExhausted = errors.New("slug allocation exhausted")
)
