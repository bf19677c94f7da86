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
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bcem/resultsbridge/internal/models"
)

// rpmdiff publishes one message per check result with a ref_url of the form
// .../run/<id>/<result>; the group correlates on the parent run URL.
var rpmdiffRunURL = regexp.MustCompile(`^(http.+/run/)(\d+)/?(\d+)?$`)

const rpmdiffPrefix = "dist.rpmdiff"

// resultEntry is one result in the bulk results mapping.
type resultEntry struct {
	Outcome string         `json:"outcome"`
	RefURL  string         `json:"ref_url"`
	Data    map[string]any `json:"data"`
	Note    string         `json:"note"`
}

// resultsDBBody is a message already close to the results API's own format,
// either a single result or a bulk results mapping.
type resultsDBBody struct {
	RefURL   string                 `json:"ref_url"`
	Testcase json.RawMessage        `json:"testcase"` // bare name string or {name, ref_url}
	Outcome  string                 `json:"outcome"`
	Note     string                 `json:"note"`
	Data     map[string]any         `json:"data"`
	Results  map[string]resultEntry `json:"results"`
}

// testcaseName extracts the test case name from either shape of the
// testcase field.
func testcaseName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// handleResultsDBFormat processes messages already in the results API's
// format: bulk mode shares one fresh group across all entries, single mode
// reuses an existing group looked up by description.
func (d *Dispatcher) handleResultsDBFormat(ctx context.Context, msg *models.Message) error {
	var body resultsDBBody
	if err := json.Unmarshal(msg.Body.Msg, &body); err != nil {
		slog.Warn("cannot decode resultsdb-format message, skipping",
			"message_id", msg.ID(),
			"error", err,
		)
		return nil
	}

	groupRefURL := body.RefURL

	if strings.HasPrefix(testcaseName(body.Testcase), rpmdiffPrefix) {
		m := rpmdiffRunURL.FindStringSubmatch(body.RefURL)
		if m == nil {
			slog.Error("ref_url does not match the rpmdiff URL scheme, skipping",
				"message_id", msg.ID(),
				"ref_url", body.RefURL,
			)
			return nil
		}
		groupRefURL = m[1] + m[2]
	}

	if len(body.Results) > 0 {
		// Bulk format: every entry shares one freshly generated group.
		groups := []models.Group{{UUID: uuid.New().String(), RefURL: groupRefURL}}

		for name, entry := range body.Results {
			data := models.ResultData{}
			for k, v := range entry.Data {
				data[k] = v
			}
			setPublisher(data, msg)

			sub := models.Submission{
				Testcase: name,
				Outcome:  entry.Outcome,
				RefURL:   entry.RefURL,
				Note:     entry.Note,
				Data:     data,
				Groups:   groups,
			}
			if err := d.api.SubmitResult(ctx, sub); err != nil {
				return fmt.Errorf("submit bulk result %q: %w", name, err)
			}
		}
		return nil
	}

	// Single format: reuse the group for this run if the API already has
	// one, keyed by description.
	groupUUID := ""
	existing, err := d.api.FindGroup(ctx, groupRefURL)
	if err != nil {
		return fmt.Errorf("find group: %w", err)
	}
	if existing != nil {
		groupUUID = existing.UUID
	}
	if groupUUID == "" {
		groupUUID = uuid.New().String()
	}

	groups := []models.Group{{
		UUID:   groupUUID,
		RefURL: groupRefURL,
		// The description makes the group discoverable for later
		// messages from the same run.
		Description: groupRefURL,
	}}

	data := models.ResultData{}
	for k, v := range body.Data {
		data[k] = v
	}
	setPublisher(data, msg)

	var testcase any
	if len(body.Testcase) > 0 {
		if err := json.Unmarshal(body.Testcase, &testcase); err != nil {
			slog.Warn("cannot decode testcase field, skipping",
				"message_id", msg.ID(),
				"error", err,
			)
			return nil
		}
	}

	return d.api.SubmitResult(ctx, models.Submission{
		Testcase: testcase,
		Outcome:  body.Outcome,
		RefURL:   body.RefURL,
		Note:     body.Note,
		Data:     data,
		Groups:   groups,
	})
}
