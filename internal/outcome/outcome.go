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

// Package outcome derives a normalized test outcome from a bus message.
package outcome

import (
	"fmt"
	"strings"
)

// Normalized outcome values understood by the results API.
const (
	Passed  = "PASSED"
	Failed  = "FAILED"
	Running = "RUNNING"
	Queued  = "QUEUED"
)

// Some producers publish outcome vocabularies the results API does not
// accept; map the known offenders onto canonical values.
var brokenMapping = map[string]string{
	"pass":    Passed,
	"fail":    Failed,
	"failure": Failed,
}

// FromMessage returns the outcome for a message given its topic and the
// status field from its body.
//
// The topic suffix wins: "*.error" is always FAILED, "*.queued" QUEUED and
// "*.running" RUNNING regardless of the body. Otherwise the body status is
// normalized through brokenMapping; unmapped values pass through unchanged.
func FromMessage(topic, status string) (string, error) {
	switch {
	case strings.HasSuffix(topic, ".error"):
		return Failed, nil
	case strings.HasSuffix(topic, ".queued"):
		return Queued, nil
	case strings.HasSuffix(topic, ".running"):
		return Running, nil
	}

	if status == "" {
		return "", fmt.Errorf("message on topic %q has no status field and no outcome topic suffix", topic)
	}

	if mapped, ok := brokenMapping[strings.ToLower(status)]; ok {
		return mapped, nil
	}
	return status, nil
}
