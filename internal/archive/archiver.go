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

package archive

import (
	"context"
	"fmt"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

const defaultPrefix = "data_sync_logs/"

// Archiver writes data_sync_logs rows to Parquet files on S3, partitioned
// by the row's start_time date, before the caller deletes them from the
// target database.
type Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewArchiver dials S3 per cfg and returns a ready Archiver.
func NewArchiver(ctx context.Context, cfg S3Config) (*Archiver, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Archiver{client: client, bucket: cfg.Bucket, prefix: defaultPrefix}, nil
}

// ArchiveLogs groups logs by their start-time date and writes one Parquet
// file per date partition. Empty input is a no-op.
func (a *Archiver) ArchiveLogs(ctx context.Context, logs []etlmodel.SyncLog) error {
	if len(logs) == 0 {
		return nil
	}

	byDate := make(map[string][]etlmodel.SyncLog)
	for _, l := range logs {
		key := partitionDate(l).Format("2006-01-02")
		byDate[key] = append(byDate[key], l)
	}

	for date, group := range byDate {
		rows := make([]logRow, len(group))
		for i, l := range group {
			rows[i] = logToRow(l)
		}

		data, err := writeParquetBytes(rows)
		if err != nil {
			return err
		}

		objectKey := fmt.Sprintf("%sdate=%s/part-%s.parquet", a.prefix, date, group[0].ID)
		if err := putObject(ctx, a.client, a.bucket, objectKey, data); err != nil {
			return err
		}
	}
	return nil
}
