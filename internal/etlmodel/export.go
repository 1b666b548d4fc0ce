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

import (
	"context"
	"time"
)

// ExportRequester is the narrow seam an external export-file generator
// uses to request and report back on a DataExport's lifecycle, without
// depending on internal/core directly.
type ExportRequester interface {
	RequestExport(ctx context.Context, exp DataExport) (DataExport, error)
	ExportStatus(ctx context.Context, id string) (DataExport, error)
	UpdateExportProgress(ctx context.Context, id string, status ExportStatus, percentage int, fileURI string) error
}

// ExportStatus is the lifecycle state of a DataExport row.
type ExportStatus string

// Supported export statuses.
const (
	ExportPending    ExportStatus = "PENDING"
	ExportProcessing ExportStatus = "PROCESSING"
	ExportCompleted  ExportStatus = "COMPLETED"
	ExportFailed     ExportStatus = "FAILED"
	ExportExpired    ExportStatus = "EXPIRED"
)

// ExportFormat is the file format requested for a DataExport.
type ExportFormat string

// Supported export formats.
const (
	ExportCSV  ExportFormat = "CSV"
	ExportJSON ExportFormat = "JSON"
	ExportXLSX ExportFormat = "XLSX"
	ExportPDF  ExportFormat = "PDF"
)

// DataExport tracks the lifecycle of a requested data export. File
// generation itself is an external collaborator (see spec non-goals); this
// core only records and reads the row.
type DataExport struct {
	ID                 string       `json:"id"`
	Status             ExportStatus `json:"status"`
	ProgressPercentage int          `json:"progressPercentage"`
	Format             ExportFormat `json:"format"`
	CreatedAt          time.Time    `json:"createdAt"`
	ExpiresAt          time.Time    `json:"expiresAt"`
	FileURI            string       `json:"fileUri,omitempty"`
}
