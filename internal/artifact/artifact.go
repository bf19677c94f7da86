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

// Package artifact detects which schema variant a unified bus message body
// follows and extracts its fields into canonical result data. One extractor
// exists per known artifact type; unknown types fall back to the generic
// build extractor keyed by NVR.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bcem/resultsbridge/internal/models"
)

// Body is the unified bus message payload as far as extraction is concerned.
// Fields that arrive with inconsistent types across producers are kept loose
// (any / json.RawMessage) and coerced in one place.
type Body struct {
	Artifact   Artifact        `json:"artifact"`
	Run        Run             `json:"run"`
	CI         Contact         `json:"ci"`
	System     json.RawMessage `json:"system"`
	Category   string          `json:"category"`
	Namespace  string          `json:"namespace"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Recipients []string        `json:"recipients"`
	XUnit      string          `json:"xunit"`
}

// Artifact describes the thing under test. Which fields are populated
// depends on the artifact type.
type Artifact struct {
	Type       string `json:"type"`
	ID         any    `json:"id"` // compose id (string), mbs id or brew task id (number)
	ComposeID  string `json:"compose_id"` // deprecated alias of id for composes
	Component  string `json:"component"`
	Version    string `json:"version"`
	Repository string `json:"repository"`
	Digest     string `json:"digest"`
	Format     string `json:"format"`
	PullRef    string `json:"pull_ref"`
	Scratch    any    `json:"scratch"` // bool, or free-text "true"/"false"
	NVR        string `json:"nvr"`
	Issuer     string `json:"issuer"`
	NSVC       string `json:"nsvc"`
	Name       string `json:"name"`
	Stream     string `json:"stream"`
	Context    string `json:"context"`
}

// Run describes the test run that produced the message.
type Run struct {
	URL     string `json:"url"`
	Log     string `json:"log"`
	Rebuild any    `json:"rebuild"`
}

// Contact is the ci block identifying the test system and its owners.
type Contact struct {
	Name        string `json:"name"`
	Team        string `json:"team"`
	URL         string `json:"url"`
	IRC         string `json:"irc"`
	Email       string `json:"email"`
	Environment string `json:"environment"`
}

// System describes the environment a test ran on.
type System struct {
	OS           string `json:"os"`
	Provider     string `json:"provider"`
	Architecture string `json:"architecture"`
	Variant      string `json:"variant"`
}

// extractFunc reshapes one schema variant into canonical result data.
type extractFunc func(b *Body, sys System) (models.ResultData, error)

var extractors = map[string]extractFunc{
	"productmd-compose": extractCompose,
	"component-version": extractComponentVersion,
	"container-image":   extractContainerImage,
	"redhat-module":     extractModule,
}

// Extract identifies the schema variant of the body via artifact.type and
// returns the canonical result data for it. Errors are message-scoped schema
// violations: the caller logs them and skips submission.
func Extract(b *Body) (models.ResultData, error) {
	if b.Artifact.Type == "" {
		return nil, fmt.Errorf("message artifact has no type")
	}

	fn, ok := extractors[b.Artifact.Type]
	if !ok {
		fn = extractBuild
	}

	data, err := fn(b, normalizeSystem(b.System))
	if err != nil {
		return nil, err
	}

	// Recipients are always present in the output, defaulting to an
	// empty list.
	recipients := b.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	data["recipients"] = recipients

	return data, nil
}

// normalizeSystem flattens the system field, which producers send either as
// a single mapping or a one-element sequence, into one System value. Done
// once here so extractors never re-check the shape.
func normalizeSystem(raw json.RawMessage) System {
	var sys System

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return sys
	}

	if trimmed[0] == '[' {
		var list []System
		if err := json.Unmarshal(trimmed, &list); err == nil && len(list) > 0 {
			return list[0]
		}
		return sys
	}

	_ = json.Unmarshal(trimmed, &sys)
	return sys
}

// scratchFlag coerces the scratch field into a bool. It is supposed to be a
// bool but some messages in the wild carry a string instead.
func scratchFlag(v any) bool {
	switch s := v.(type) {
	case bool:
		return s
	case string:
		return strings.EqualFold(s, "true")
	}
	return false
}

// composeID returns the compose identifier, preferring the current id field
// over the deprecated compose_id.
func (a *Artifact) composeID() string {
	if s, ok := a.ID.(string); ok && s != "" {
		return s
	}
	return a.ComposeID
}
