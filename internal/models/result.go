// Copyright (c) 2026 John Earle
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

package models

// TestCase identifies what was tested: a dot-delimited name and a link to
// the test definition or job.
type TestCase struct {
	Name   string `json:"name"`
	RefURL string `json:"ref_url,omitempty"`
}

// Group correlates multiple individual results produced by one run.
// UMB results link groups via "url" while the resultsdb format uses
// "ref_url"; omitempty keeps the wire shape of whichever was set.
type Group struct {
	UUID        string `json:"uuid"`
	RefURL      string `json:"ref_url,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// ResultData is the canonical flattened mapping describing one test outcome.
type ResultData map[string]any

// Set stores a key/value pair, dropping nil values and empty strings so
// absent fields are omitted from the submission instead of being sent as null.
func (d ResultData) Set(key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	d[key] = value
}

// Submission is the unit of the bridge's external effect: one result record
// ready to be POSTed to the results API. Testcase is either a TestCase or a
// bare name string, both of which the API accepts.
type Submission struct {
	Testcase any        `json:"testcase"`
	Groups   []Group    `json:"groups"`
	Outcome  string     `json:"outcome"`
	RefURL   string     `json:"ref_url"`
	Note     string     `json:"note"`
	Data     ResultData `json:"data"`
}
