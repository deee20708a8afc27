package session

import "errors"

var (
	ErrNoFiche       = errors.New("no fiche loaded")
	ErrUnknownTarget = errors.New("unknown or hidden target")
	ErrUnknownField  = errors.New("unknown field")
	ErrWrongKind     = errors.New("field kind does not accept this value")

	// ErrStaleScan is returned by Scan when a newer scan (or a reset)
	// committed while this one was being decoded.
	ErrStaleScan = errors.New("scan superseded by a newer one")
)
