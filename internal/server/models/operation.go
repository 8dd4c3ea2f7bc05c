package models

import "time"

// OperationType names what an audit record describes.
type OperationType string

const (
	OperationSave    OperationType = "save"
	OperationSort    OperationType = "sort"
	OperationSearch  OperationType = "search"
	OperationReplace OperationType = "replace"
	OperationDelete  OperationType = "delete"
)

func (t OperationType) Valid() bool {
	switch t {
	case OperationSave, OperationSort, OperationSearch, OperationReplace, OperationDelete:
		return true
	}
	return false
}

// Operation is one audit log record. Parameters and Result hold JSON objects
// as text.
type Operation struct {
	ID              int64
	UserID          int64
	Type            OperationType
	Parameters      string
	Result          string
	ExecutionTimeMs int64
	OperationTime   time.Time
}
