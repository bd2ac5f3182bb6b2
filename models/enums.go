package models

// MovementType classifies a stock-movement row. The stock queries map each
// type to a signed contribution: entry and transfer-in credit warehouse_to_id,
// exit and transfer-out debit warehouse_from_id, adjustment credits
// warehouse_to_id with a delta that may itself be negative.
type MovementType string

const (
	MovementTypeEntry      MovementType = "entry"
	MovementTypeExit       MovementType = "exit"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeAdjustment MovementType = "adjustment"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// JobStatus is the optimization-job state machine:
// pending -> running -> complete | failed. Terminal states are never left.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)
