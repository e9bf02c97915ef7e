package geo

import "errors"

var (
	ErrInvalidCoordinate = errors.New("geo: invalid coordinate")
	ErrInvalidRegion     = errors.New("geo: invalid region")
	ErrInvalidRadius     = errors.New("geo: radius must be positive")
)
