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

// Package archive cold-archives data_sync_logs rows to Parquet files on S3
// before the weekly cleanup job deletes them from the target database,
// giving spec.md §4.5's "removes rows older than logRetentionDays" an
// auditable trail instead of a bare delete.
package archive

import (
	"encoding/json"
	"time"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// logRow is the Parquet row schema for an archived data_sync_logs entry.
type logRow struct {
	ID               string `parquet:"id"`
	SyncType         string `parquet:"sync_type"`
	TableName        string `parquet:"table_name"`
	Operation        string `parquet:"operation"`
	RecordsProcessed int32  `parquet:"records_processed"`
	RecordsSuccess   int32  `parquet:"records_success"`
	RecordsFailed    int32  `parquet:"records_failed"`
	StartTime        int64  `parquet:"start_time"`
	EndTime          int64  `parquet:"end_time"`
	DurationMS       int64  `parquet:"duration_ms"`
	Status           string `parquet:"status"`
	ErrorMessage     string `parquet:"error_message,optional"`
	MetadataJSON     string `parquet:"metadata_json,optional"`
}

func logToRow(l etlmodel.SyncLog) logRow {
	metadata := ""
	if len(l.Metadata) > 0 {
		if b, err := json.Marshal(l.Metadata); err == nil {
			metadata = string(b)
		}
	}
	return logRow{
		ID:               l.ID,
		SyncType:         l.SyncType,
		TableName:        l.TableName,
		Operation:        string(l.Operation),
		RecordsProcessed: int32(l.RecordsProcessed),
		RecordsSuccess:   int32(l.RecordsSuccess),
		RecordsFailed:    int32(l.RecordsFailed),
		StartTime:        l.StartTime.UnixMilli(),
		EndTime:          l.EndTime.UnixMilli(),
		DurationMS:       l.DurationMS,
		Status:           string(l.Status),
		ErrorMessage:     l.ErrorMessage,
		MetadataJSON:     metadata,
	}
}

// partitionDate truncates a row's start time to the day, for the Hive-style
// date=YYYY-MM-DD partition its archive file is written under.
func partitionDate(l etlmodel.SyncLog) time.Time {
	return l.StartTime.UTC().Truncate(24 * time.Hour)
}
