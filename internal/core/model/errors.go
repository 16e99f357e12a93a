package model

import "errors"

var (
	// ErrNotFound: the record store has no rows for the patient.
	ErrNotFound = errors.New("patient not found")

	// ErrUnavailable: a store could not be reached or queried.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNoData: the store answered but returned zero rows.
	ErrNoData = errors.New("no data for patient")

	// ErrGenerationFailure: the synthesis capability errored or produced
	// a malformed document. Fatal when raised by the summarization stage.
	ErrGenerationFailure = errors.New("generation failure")
)
