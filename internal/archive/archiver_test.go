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
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

type fakePutter struct {
	puts map[string][]byte
}

func newFakePutter() *fakePutter {
	return &fakePutter{puts: make(map[string][]byte)}
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func sampleLog(id string, start time.Time) etlmodel.SyncLog {
	return etlmodel.SyncLog{
		ID:               id,
		SyncType:         "full",
		TableName:        "users",
		Operation:        etlmodel.OperationCleanup,
		RecordsProcessed: 10,
		RecordsSuccess:   9,
		RecordsFailed:    1,
		StartTime:        start,
		EndTime:          start.Add(time.Minute),
		DurationMS:       60000,
		Status:           etlmodel.StatusCompleted,
	}
}

func TestArchiver_ArchiveLogsWritesOnePartitionPerDate(t *testing.T) {
	putter := newFakePutter()
	a := &Archiver{client: putter, bucket: "test-bucket", prefix: defaultPrefix}

	day1 := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	logs := []etlmodel.SyncLog{
		sampleLog("log-1", day1),
		sampleLog("log-2", day1),
		sampleLog("log-3", day2),
	}

	err := a.ArchiveLogs(context.Background(), logs)
	require.NoError(t, err)
	assert.Len(t, putter.puts, 2)

	for key, data := range putter.puts {
		assert.Contains(t, key, defaultPrefix)
		assert.NotEmpty(t, data)
	}
}

func TestArchiver_ArchiveLogsEmptyInputIsNoop(t *testing.T) {
	putter := newFakePutter()
	a := &Archiver{client: putter, bucket: "test-bucket", prefix: defaultPrefix}

	err := a.ArchiveLogs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, putter.puts)
}

func TestWriteParquetBytes_RoundTrips(t *testing.T) {
	rows := []logRow{logToRow(sampleLog("log-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))}

	data, err := writeParquetBytes(rows)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.True(t, bytes.Contains(data, []byte("log-1")))
}
