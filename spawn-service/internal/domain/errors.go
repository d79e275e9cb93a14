package domain

import "errors"

var (
	// ErrInvalidDistribution is returned when a weighted set is empty or has a non-positive weight.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrInvalidEvent is returned for engagement events that cannot be applied, such as negative like counts.
	ErrInvalidEvent = errors.New("invalid engagement event")

	// ErrSubscriberWrite wraps a failed write to a renderer connection.
	ErrSubscriberWrite = errors.New("subscriber write failed")

	// ErrUnknownCommand is returned when encoding or decoding a spawn command of an unknown kind.
	ErrUnknownCommand = errors.New("unknown spawn command")
)
