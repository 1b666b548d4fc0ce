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

package configprovider

import (
	"context"
	"errors"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// ErrTableNotConfigured is returned by Table when no descriptor is
// registered under the requested name.
var ErrTableNotConfigured = errors.New("configprovider: table not configured")

// ConfigProvider is the recognized configuration surface: the five setting
// groups named in spec.md §6, plus the table descriptors the scheduler and
// manual-sync paths drive. CPALevelAmounts and CPAValidationRules return
// their package defaults when the underlying source carries no value; the
// other setting groups return zero values for missing fields.
type ConfigProvider interface {
	DataSyncSettings(ctx context.Context) (DataSyncSettings, error)
	AnalyticsSettings(ctx context.Context) (AnalyticsSettings, error)
	ExportSettings(ctx context.Context) (ExportSettings, error)
	CPALevelAmounts(ctx context.Context) (CPALevelAmounts, error)
	CPAValidationRules(ctx context.Context) (CPAValidationRules, error)

	// Tables returns every registered table descriptor, keyed by
	// SourceTable.
	Tables(ctx context.Context) (map[string]etlmodel.TableDescriptor, error)
	// Table returns a single descriptor, or ErrTableNotConfigured.
	Table(ctx context.Context, name string) (etlmodel.TableDescriptor, error)
}
