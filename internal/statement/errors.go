package statement

import (
	"errors"
	"fmt"

	"arstatements/pkg/models"
)

var (
	// ErrEmptyResult is returned when no row matches the day filter.
	// It is not a failure: the run has nothing to do today.
	ErrEmptyResult = errors.New("no clients to process")

	// ErrUnknownCurrency is returned for a currency group that is neither LOCAL nor USD.
	ErrUnknownCurrency = errors.New("unrecognized currency")
)

// EmptyResultError carries the filter that produced no rows.
type EmptyResultError struct {
	Filter Weekday
	Rows   int // rows before filtering
}

// Error implements the error interface.
func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("statement: no clients for processing day %q (%d rows read)", e.Filter, e.Rows)
}

// Is matches ErrEmptyResult.
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// UnknownCurrencyError is fatal for one (client, currency) group only.
type UnknownCurrencyError struct {
	ClientCode string
	Currency   models.Currency
}

// Error implements the error interface.
func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("statement: client %s: unrecognized currency %q", e.ClientCode, e.Currency)
}

// Is matches ErrUnknownCurrency.
func (e *UnknownCurrencyError) Is(target error) bool {
	return target == ErrUnknownCurrency
}
