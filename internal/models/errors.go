package models

import "errors"

var (
	// ErrPositionNotFound is returned when a ticker is not held by the user.
	ErrPositionNotFound = errors.New("position not found")
	// ErrNoPositions is returned when the user holds nothing to compute.
	ErrNoPositions = errors.New("no positions")
	// ErrPurchaseNotFound is returned when a purchase id does not exist for the user.
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrInvalidPurchase wraps validation failures on purchase input.
	ErrInvalidPurchase = errors.New("invalid purchase")
	// ErrNotEnoughData is returned when a series is too short to render.
	ErrNotEnoughData = errors.New("not enough data")
	// ErrUnknownSeries is returned for a chart series that is neither "total" nor an asset class.
	ErrUnknownSeries = errors.New("unknown series")
)
