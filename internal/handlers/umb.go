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

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bcem/resultsbridge/internal/artifact"
	"github.com/bcem/resultsbridge/internal/models"
	"github.com/bcem/resultsbridge/internal/outcome"
	"github.com/bcem/resultsbridge/internal/topics"
)

// handleUMB processes a unified bus message: detect the artifact schema
// variant, extract canonical result data, classify the outcome, and submit
// one result gated on the topic/namespace check.
func (d *Dispatcher) handleUMB(ctx context.Context, msg *models.Message) error {
	var body artifact.Body
	if err := json.Unmarshal(msg.Body.Msg, &body); err != nil {
		slog.Warn("cannot decode bus message, skipping",
			"message_id", msg.ID(),
			"topic", msg.Topic,
			"error", err,
		)
		return nil
	}

	if body.Run.URL == "" {
		slog.Warn("message has no run url, skipping", "message_id", msg.ID())
		return nil
	}

	result, err := outcome.FromMessage(msg.Topic, body.Status)
	if err != nil {
		slog.Warn("cannot derive outcome, skipping",
			"message_id", msg.ID(),
			"error", err,
		)
		return nil
	}

	data, err := artifact.Extract(&body)
	if err != nil {
		slog.Error("cannot extract artifact fields, ignoring result",
			"message_id", msg.ID(),
			"artifact_type", body.Artifact.Type,
			"error", err,
		)
		return nil
	}
	setPublisher(data, msg)

	testcase := models.TestCase{
		Name: strings.Join([]string{
			orDefault(body.Namespace, "unknown"),
			orDefault(body.Type, "unknown"),
			orDefault(body.Category, "unknown"),
		}, "."),
		RefURL: body.CI.URL,
	}
	if strings.Contains(testcase.Name, "unknown") {
		slog.Warn("message lacked fields to fully build a testcase name",
			"message_id", msg.ID(),
			"testcase", testcase.Name,
		)
	}

	if !topics.Verify(msg.Topic, testcase.Name) {
		return nil
	}

	groups := []models.Group{{UUID: uuid.New().String(), URL: body.Run.URL}}

	return d.api.SubmitResult(ctx, models.Submission{
		Testcase: testcase,
		Outcome:  result,
		RefURL:   body.Run.URL,
		Data:     data,
		Groups:   groups,
	})
}
