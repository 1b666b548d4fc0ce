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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/tableconfig"
)

// document is the on-disk/over-the-wire shape of a config source: the YAML
// StaticProvider file and the RemoteProvider's JSON response share it, so
// every field carries both a yaml tag (camelCase, matching the rest of
// this module's YAML surface) and a json tag (the snake_case key names
// spec.md §6 names for the remote config service).
type document struct {
	DataSync  DataSyncSettings                   `yaml:"dataSyncSettings" json:"data_sync_settings"`
	Analytics AnalyticsSettings                   `yaml:"analyticsSettings" json:"analytics_settings"`
	Export    ExportSettings                      `yaml:"exportSettings" json:"export_settings"`
	CPALevels CPALevelAmounts                     `yaml:"cpaLevelAmounts" json:"cpa_level_amounts"`
	CPARules  CPAValidationRules                  `yaml:"cpaValidationRules" json:"cpa_validation_rules"`
	Tables    map[string]etlmodel.TableDescriptor `yaml:"tables" json:"tables"`
}

// StaticProvider is a ConfigProvider backed by a single YAML file loaded
// once at construction, for local development and testing (the teacher's
// internal/compaction/config.go equivalent: a ConfigMap-mounted file read
// with a YAML unmarshaler; this module parses plain YAML with
// gopkg.in/yaml.v3 rather than sigs.k8s.io/yaml since there is no
// Kubernetes JSON-tag struct underneath it).
type StaticProvider struct {
	doc       document
	validator *tableconfig.Validator
}

var _ ConfigProvider = (*StaticProvider)(nil)

// LoadStaticProvider reads and parses a YAML config file at path. Every
// table descriptor it contains is validated with validator (pass nil to
// skip validation, e.g. in tests exercising malformed shapes deliberately).
func LoadStaticProvider(path string, validator *tableconfig.Validator) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configprovider: read static config: %w", err)
	}
	return NewStaticProviderFromBytes(data, validator)
}

// NewStaticProviderFromBytes parses raw YAML bytes, applying the same
// validation and defaulting LoadStaticProvider does.
func NewStaticProviderFromBytes(data []byte, validator *tableconfig.Validator) (*StaticProvider, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("configprovider: parse static config: %w", err)
	}

	if doc.CPALevels == (CPALevelAmounts{}) {
		doc.CPALevels = DefaultCPALevelAmounts()
	}
	if len(doc.CPARules.Groups) == 0 {
		doc.CPARules = DefaultCPAValidationRules()
	}

	if validator != nil {
		for name, td := range doc.Tables {
			if err := validator.Validate(td); err != nil {
				return nil, fmt.Errorf("configprovider: table %q: %w", name, err)
			}
		}
	}

	return &StaticProvider{doc: doc}, nil
}

func (p *StaticProvider) DataSyncSettings(context.Context) (DataSyncSettings, error) {
	return p.doc.DataSync, nil
}

func (p *StaticProvider) AnalyticsSettings(context.Context) (AnalyticsSettings, error) {
	return p.doc.Analytics, nil
}

func (p *StaticProvider) ExportSettings(context.Context) (ExportSettings, error) {
	return p.doc.Export, nil
}

func (p *StaticProvider) CPALevelAmounts(context.Context) (CPALevelAmounts, error) {
	return p.doc.CPALevels, nil
}

func (p *StaticProvider) CPAValidationRules(context.Context) (CPAValidationRules, error) {
	return p.doc.CPARules, nil
}

func (p *StaticProvider) Tables(context.Context) (map[string]etlmodel.TableDescriptor, error) {
	out := make(map[string]etlmodel.TableDescriptor, len(p.doc.Tables))
	for k, v := range p.doc.Tables {
		out[k] = v
	}
	return out, nil
}

func (p *StaticProvider) Table(_ context.Context, name string) (etlmodel.TableDescriptor, error) {
	td, ok := p.doc.Tables[name]
	if !ok {
		return etlmodel.TableDescriptor{}, fmt.Errorf("configprovider: table %q: %w", name, ErrTableNotConfigured)
	}
	return td, nil
}
