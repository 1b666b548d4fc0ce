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

package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// SyncMode selects TableSyncer's read strategy.
type SyncMode string

// Supported sync modes.
const (
	ModeFull        SyncMode = "full"
	ModeIncremental SyncMode = "incremental"
)

const defaultBatchSize = 500

// SyncOpts configures one TableSyncer.SyncTable call.
type SyncOpts struct {
	// BatchSize overrides defaultBatchSize when > 0.
	BatchSize int
	// Watermark overrides the resolved-from-store watermark for incremental
	// mode when non-zero.
	Watermark time.Time
}

// SyncResult is the outcome of one TableSyncer.SyncTable call.
type SyncResult struct {
	Success          bool
	SyncType         SyncMode
	RecordsProcessed int
	RecordsSuccess   int
	RecordsFailed    int
	Err              error
}

// TableSyncer orchestrates SourceReader -> RecordMapper -> TargetWriter for
// one table (C4), in either full or incremental mode.
type TableSyncer struct {
	Reader         SourceReader
	Writer         TargetWriter
	LogStore       SyncLogStore
	WatermarkStore WatermarkStore
	// NowFunc returns the current time; overridable in tests.
	NowFunc func() time.Time
}

// NewTableSyncer builds a TableSyncer from its collaborators.
func NewTableSyncer(reader SourceReader, writer TargetWriter, logStore SyncLogStore, watermarkStore WatermarkStore) *TableSyncer {
	return &TableSyncer{
		Reader:         reader,
		Writer:         writer,
		LogStore:       logStore,
		WatermarkStore: watermarkStore,
		NowFunc:        time.Now,
	}
}

// SyncTable runs one sync attempt for table in mode, recording a SyncLog row
// for the attempt and, on a successful incremental run over a non-empty
// result set, advancing the table's persisted watermark.
func (s *TableSyncer) SyncTable(ctx context.Context, table etlmodel.TableDescriptor, mode SyncMode, opts SyncOpts) (SyncResult, error) {
	if !table.Enabled {
		return SyncResult{}, etlmodel.ErrTableDisabled
	}
	if mode == ModeIncremental && table.IncrementalField == "" {
		return SyncResult{}, etlmodel.ErrIncrementalFieldRequired
	}

	now := s.now()
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	log := &etlmodel.SyncLog{
		ID:        uuid.NewString(),
		SyncType:  string(mode),
		TableName: table.SourceTable,
		Operation: etlmodel.OperationSync,
		StartTime: now,
		Status:    etlmodel.StatusRunning,
	}
	if s.LogStore != nil {
		if err := s.LogStore.Start(ctx, log); err != nil {
			return SyncResult{}, fmt.Errorf("etl: start sync log: %w", err)
		}
	}

	mapper := NewRecordMapper(table)

	var result SyncResult
	var runErr error
	var maxWatermark time.Time

	switch mode {
	case ModeIncremental:
		watermark, wmErr := s.resolveWatermark(ctx, table, opts)
		if wmErr != nil {
			runErr = fmt.Errorf("etl: resolve watermark: %w", wmErr)
			break
		}

		readResult, err := s.Reader.ReadBatch(ctx, table, ReadOpts{
			BatchSize:        batchSize,
			IncrementalField: table.IncrementalField,
			Watermark:        watermark,
		})
		if err != nil {
			runErr = fmt.Errorf("etl: read batch: %w", err)
			break
		}
		if !readResult.Success {
			runErr = fmt.Errorf("etl: read batch: %w", readResult.Err)
			break
		}
		if len(readResult.Rows) == 0 {
			result = SyncResult{Success: true, SyncType: mode}
			break
		}

		stage, stageErr := s.runStage(mapper, readResult.Rows, ctx, table)
		result = stage
		result.SyncType = mode
		runErr = stageErr
		maxWatermark = maxIncrementalValue(readResult.Rows, table.IncrementalField, now)

	case ModeFull:
		var stats etlmodel.WriterStats
		var processed, rejected int
		var batchErr error
		err := s.Reader.ReadAll(ctx, table, ReadOpts{BatchSize: batchSize}, func(ctx context.Context, rows []etlmodel.Row) error {
			stage, stageErr := s.runStage(mapper, rows, ctx, table)
			processed += stage.RecordsProcessed
			rejected += stage.RecordsFailed
			stats.Loaded += stage.RecordsSuccess
			if stageErr != nil {
				// An integrity failure loses only this batch; go on with the next.
				var integrityErr *etlmodel.IntegrityError
				if errors.As(stageErr, &integrityErr) {
					if batchErr == nil {
						batchErr = stageErr
					}
					return nil
				}
				return stageErr
			}
			return nil
		})
		if err == nil {
			err = batchErr
		}
		result = SyncResult{
			Success:          err == nil,
			SyncType:         mode,
			RecordsProcessed: processed,
			RecordsSuccess:   stats.Loaded,
			RecordsFailed:    rejected,
		}
		runErr = err

	default:
		runErr = fmt.Errorf("etl: unknown sync mode %q", mode)
	}

	result.Err = runErr
	if runErr != nil {
		result.Success = false
	}

	if s.LogStore != nil {
		finishNow := s.now()
		status := etlmodel.StatusCompleted
		errMsg := ""
		if runErr != nil {
			status = etlmodel.StatusFailed
			errMsg = runErr.Error()
		}
		log.RecordsProcessed = result.RecordsProcessed
		log.RecordsSuccess = result.RecordsSuccess
		log.RecordsFailed = result.RecordsFailed
		log.Finalize(finishNow, status, errMsg)
		if err := s.LogStore.Finish(ctx, log); err != nil && runErr == nil {
			return result, fmt.Errorf("etl: finish sync log: %w", err)
		}
	}

	if runErr == nil && mode == ModeIncremental && !maxWatermark.IsZero() && s.WatermarkStore != nil {
		if err := s.WatermarkStore.SetWatermark(ctx, table.SourceTable, maxWatermark); err != nil {
			return result, fmt.Errorf("etl: persist watermark: %w", err)
		}
	}

	return result, runErr
}

// runStage maps and writes one page of rows, returning per-stage stats.
func (s *TableSyncer) runStage(mapper *RecordMapper, rows []etlmodel.Row, ctx context.Context, table etlmodel.TableDescriptor) (SyncResult, error) {
	accepted, rejected, _ := mapper.MapBatch(rows)

	result := SyncResult{
		RecordsProcessed: len(rows),
		RecordsFailed:    len(rejected),
	}

	if len(accepted) == 0 {
		result.Success = true
		return result, nil
	}

	writerStats, err := s.Writer.LoadBatch(ctx, table, accepted)
	result.RecordsSuccess = writerStats.Loaded
	if err != nil {
		return result, fmt.Errorf("etl: load batch: %w", err)
	}
	result.Success = true
	return result, nil
}

// resolveWatermark implements the fallback chain: caller-supplied, else the
// persisted watermark, else the last successful sync's start time, else one
// hour ago.
func (s *TableSyncer) resolveWatermark(ctx context.Context, table etlmodel.TableDescriptor, opts SyncOpts) (time.Time, error) {
	if !opts.Watermark.IsZero() {
		return opts.Watermark, nil
	}

	if s.WatermarkStore != nil {
		if wm, ok, err := s.WatermarkStore.GetWatermark(ctx, table.SourceTable); err != nil {
			return time.Time{}, err
		} else if ok {
			return wm, nil
		}
	}

	if s.LogStore != nil {
		if last, err := s.LogStore.LastSuccessfulSync(ctx, table.SourceTable); err != nil {
			return time.Time{}, err
		} else if !last.IsZero() {
			return last, nil
		}
	}

	return s.now().Add(-time.Hour), nil
}

func (s *TableSyncer) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now()
}

// maxIncrementalValue scans rows for the greatest value of field, returning
// it as a time.Time when the field parses as one. If no row yields a usable
// timestamp, now is returned as the conservative substitute spec.md allows.
func maxIncrementalValue(rows []etlmodel.Row, field string, now time.Time) time.Time {
	var max time.Time
	for _, row := range rows {
		t, ok := row[field].(time.Time)
		if !ok {
			continue
		}
		if t.After(max) {
			max = t
		}
	}
	if max.IsZero() {
		return now
	}
	return max
}
