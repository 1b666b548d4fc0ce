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
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// writeParquetBytes serializes rows into Parquet format with Snappy
// compression.
func writeParquetBytes(rows []logRow) ([]byte, error) {
	var buf bytes.Buffer

	w := parquet.NewGenericWriter[logRow](&buf, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("archive: parquet write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("archive: parquet close: %w", err)
	}
	return buf.Bytes(), nil
}
