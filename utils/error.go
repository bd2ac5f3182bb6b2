package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Movement argument errors. These indicate a caller bug (missing or malformed
// warehouse arguments), as opposed to the insufficient-stock refusal which is
// an ordinary boolean result.
var (
	ErrorWarehouseRequired = errors.New("warehouse must be specified for this movement")
	ErrorSameWarehouse     = errors.New("source and destination warehouses must be different")
	ErrorQuantityInvalid   = errors.New("quantity must be a positive integer")
	ErrorZeroAdjustment    = errors.New("adjustment delta must be non-zero")
)
