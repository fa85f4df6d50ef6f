// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// hclConfig is the HCL schema. Attribute names are snake case.
type hclConfig struct {
	OpenAfterComplete *bool             `hcl:"open_after_complete,optional"`
	ShowAfterComplete *bool             `hcl:"show_after_complete,optional"`
	PutFileIntoBin    *bool             `hcl:"put_file_into_bin,optional"`
	Debug             *bool             `hcl:"debug,optional"`
	AppendVersion     *bool             `hcl:"append_version,optional"`
	Compile           *bool             `hcl:"compile,optional"`
	PreambleFile      *string           `hcl:"preamble_file,optional"`
	LicenseFile       *string           `hcl:"license_file,optional"`
	ImportPrefix      *string           `hcl:"import_prefix,optional"`
	PreamblePatterns  map[string]string `hcl:"preamble_patterns,optional"`
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	return &Config{
		OpenAfterComplete: hclCfg.OpenAfterComplete,
		ShowAfterComplete: hclCfg.ShowAfterComplete,
		PutFileIntoBin:    hclCfg.PutFileIntoBin,
		Debug:             hclCfg.Debug,
		AppendVersion:     hclCfg.AppendVersion,
		Compile:           hclCfg.Compile,
		PreambleFile:      deref(hclCfg.PreambleFile),
		LicenseFile:       deref(hclCfg.LicenseFile),
		ImportPrefix:      deref(hclCfg.ImportPrefix),
		PreamblePatterns:  hclCfg.PreamblePatterns,
	}, nil
}

// 💾 Encode renders the set fields as HCL attributes
func (p *HCLParser) Encode(cfg *Config) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for _, attr := range []struct {
		name string
		val  *bool
	}{
		{"open_after_complete", cfg.OpenAfterComplete},
		{"show_after_complete", cfg.ShowAfterComplete},
		{"put_file_into_bin", cfg.PutFileIntoBin},
		{"debug", cfg.Debug},
		{"append_version", cfg.AppendVersion},
		{"compile", cfg.Compile},
	} {
		if attr.val != nil {
			body.SetAttributeValue(attr.name, cty.BoolVal(*attr.val))
		}
	}

	for _, attr := range []struct {
		name string
		val  string
	}{
		{"preamble_file", cfg.PreambleFile},
		{"license_file", cfg.LicenseFile},
		{"import_prefix", cfg.ImportPrefix},
	} {
		if attr.val != "" {
			body.SetAttributeValue(attr.name, cty.StringVal(attr.val))
		}
	}

	if len(cfg.PreamblePatterns) > 0 {
		exts := make([]string, 0, len(cfg.PreamblePatterns))
		for ext := range cfg.PreamblePatterns {
			exts = append(exts, ext)
		}
		sort.Strings(exts)

		vals := make(map[string]cty.Value, len(exts))
		for _, ext := range exts {
			vals[ext] = cty.StringVal(cfg.PreamblePatterns[ext])
		}
		body.SetAttributeValue("preamble_patterns", cty.MapVal(vals))
	}

	return f.Bytes(), nil
}
