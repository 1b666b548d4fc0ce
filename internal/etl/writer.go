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

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// TargetWriter loads mapped rows into the target database for one table,
// classifying each row as inserted, updated, or skipped.
type TargetWriter interface {
	// LoadBatch writes rows to table.TargetTable inside a single
	// transaction. A unique-constraint violation on a single row is
	// counted as skipped and does not fail the batch; any other database
	// error rolls the whole batch back and is returned wrapped as an
	// *etlmodel.IntegrityError or *etlmodel.ConnectivityError.
	LoadBatch(ctx context.Context, table etlmodel.TableDescriptor, rows []etlmodel.Row) (etlmodel.WriterStats, error)
}
