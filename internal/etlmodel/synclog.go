/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package etlmodel

import "time"

// SyncOperation is the kind of operation a SyncLog row records.
type SyncOperation string

// Supported SyncLog operations.
const (
	OperationSync      SyncOperation = "SYNC"
	OperationExport    SyncOperation = "EXPORT"
	OperationImport    SyncOperation = "IMPORT"
	OperationCleanup   SyncOperation = "CLEANUP"
	OperationAggregate SyncOperation = "AGGREGATE"
)

// SyncStatus is the lifecycle state of a SyncLog row.
type SyncStatus string

// Supported SyncLog statuses.
const (
	StatusRunning   SyncStatus = "RUNNING"
	StatusCompleted SyncStatus = "COMPLETED"
	StatusFailed    SyncStatus = "FAILED"
	StatusCancelled SyncStatus = "CANCELLED"
)

// SyncLog is one persisted attempt at a sync, export, import, cleanup, or
// aggregate operation. It maps to the data_sync_logs table.
type SyncLog struct {
	ID               string            `json:"id"`
	SyncType         string            `json:"syncType"`
	TableName        string            `json:"tableName"`
	Operation        SyncOperation     `json:"operation"`
	RecordsProcessed int               `json:"recordsProcessed"`
	RecordsSuccess   int               `json:"recordsSuccess"`
	RecordsFailed    int               `json:"recordsFailed"`
	StartTime        time.Time         `json:"startTime"`
	EndTime          time.Time         `json:"endTime"`
	DurationMS       int64             `json:"durationMs"`
	Status           SyncStatus        `json:"status"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Finalize stamps end_time/duration_ms and sets status, keeping the
// records_success + records_failed <= records_processed invariant the
// caller is responsible for having maintained in Success/Failed counts.
func (s *SyncLog) Finalize(now time.Time, status SyncStatus, errMsg string) {
	s.EndTime = now
	if s.EndTime.Before(s.StartTime) {
		s.EndTime = s.StartTime
	}
	s.DurationMS = s.EndTime.Sub(s.StartTime).Milliseconds()
	s.Status = status
	s.ErrorMessage = errMsg
}

// SyncConfiguration governs the operational parameters of one syncable
// table. It maps to the sync_configurations table.
type SyncConfiguration struct {
	TableName           string           `json:"tableName"`
	SyncIntervalMinutes int              `json:"syncIntervalMinutes"`
	BatchSize           int              `json:"batchSize"`
	MaxRetries          int              `json:"maxRetries"`
	TimeoutSeconds      int              `json:"timeoutSeconds"`
	Status              SyncConfigStatus `json:"status"`
}

// SyncConfigStatus is the operational status of a SyncConfiguration row.
type SyncConfigStatus string

// Supported SyncConfiguration statuses.
const (
	ConfigStatusActive   SyncConfigStatus = "ACTIVE"
	ConfigStatusInactive SyncConfigStatus = "INACTIVE"
	ConfigStatusError    SyncConfigStatus = "ERROR"
)
