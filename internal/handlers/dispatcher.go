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

// Package handlers contains the message pipelines: each takes one bus
// message and turns it into zero or more result submissions. The dispatcher
// picks the pipeline from the message body shape.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bcem/resultsbridge/internal/models"
)

// Submitter is the boundary to the results API consumed by the pipelines.
type Submitter interface {
	SubmitResult(ctx context.Context, sub models.Submission) error
	FindGroup(ctx context.Context, description string) (*models.Group, error)
}

// Dispatcher routes incoming messages to the pipeline matching their shape.
type Dispatcher struct {
	api Submitter
}

// NewDispatcher creates a dispatcher submitting through the given API.
func NewDispatcher(api Submitter) *Dispatcher {
	return &Dispatcher{api: api}
}

// Dispatch processes one message to completion. Message-scoped schema and
// consistency problems are logged and swallowed here so they never crash
// the consumer; only submission failures are returned, letting the caller
// apply its redelivery policy.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *models.Message) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(msg.Body.Msg, &probe); err != nil {
		slog.Warn("message body is not a JSON object, skipping",
			"message_id", msg.ID(),
			"topic", msg.Topic,
			"error", err,
		)
		return nil
	}

	_, hasResults := probe["results"]
	_, hasTestcase := probe["testcase"]
	_, hasOutcome := probe["outcome"]
	_, hasTests := probe["tests"]
	_, hasBuildURL := probe["jenkins_build_url"]
	_, hasArtifact := probe["artifact"]

	switch {
	case hasResults || (hasTestcase && hasOutcome):
		return d.handleResultsDBFormat(ctx, msg)
	case hasTests && hasBuildURL:
		return d.handleCIMetrics(ctx, msg)
	case hasArtifact:
		return d.handleUMB(ctx, msg)
	default:
		slog.Warn("message does not match any known format, skipping",
			"message_id", msg.ID(),
			"topic", msg.Topic,
		)
		return nil
	}
}

// setPublisher records the bus publisher identity when the header is present.
func setPublisher(data models.ResultData, msg *models.Message) {
	data.Set("publisher_id", msg.PublisherID())
}
