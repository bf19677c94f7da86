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
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bcem/resultsbridge/internal/models"
	"github.com/bcem/resultsbridge/internal/outcome"
)

// ciMetricsBody is the legacy Jenkins CI-metrics payload.
type ciMetricsBody struct {
	Team            string           `json:"team"`
	JobName         string           `json:"job_name"`
	JobNames        string           `json:"job_names"` // deprecated
	JenkinsJobURL   string           `json:"jenkins_job_url"`
	JenkinsBuildURL string           `json:"jenkins_build_url"`
	BuildType       string           `json:"build_type"`
	Artifact        string           `json:"artifact"`
	BrewTaskID      any              `json:"brew_task_id"`
	Component       string           `json:"component"`
	Recipients      string           `json:"recipients"` // comma-separated names
	CITier          any              `json:"CI_tier"`
	Tests           []map[string]any `json:"tests"`
}

// handleCIMetrics submits one result per sub-test plus one aggregate result,
// all sharing a single group for the Jenkins build.
func (d *Dispatcher) handleCIMetrics(ctx context.Context, msg *models.Message) error {
	var body ciMetricsBody
	if err := json.Unmarshal(msg.Body.Msg, &body); err != nil {
		slog.Warn("cannot decode ci-metrics message, skipping",
			"message_id", msg.ID(),
			"error", err,
		)
		return nil
	}

	team := body.Team
	if team == "" {
		team = "unassigned"
		slog.Warn("ci-metrics message has no team, using unassigned as the namespace",
			"message_id", msg.ID(),
		)
	}

	testName := body.JobName
	if testName == "" && body.JobNames != "" {
		// This should eventually be deprecated and removed.
		testName = body.JobNames
		slog.Warn("ci-metrics message uses deprecated job_names field",
			"message_id", msg.ID(),
		)
	}
	if testName == "" {
		slog.Warn("ci-metrics message has no job name, skipping",
			"message_id", msg.ID(),
		)
		return nil
	}

	if body.JenkinsJobURL == "" || body.JenkinsBuildURL == "" {
		slog.Warn("ci-metrics message has no jenkins job or build url, skipping",
			"message_id", msg.ID(),
			"job_name", testName,
		)
		return nil
	}

	buildType := orDefault(body.BuildType, "unknown")
	artifactName := orDefault(body.Artifact, "unknown")
	component := orDefault(body.Component, "unknown")

	brewTaskID := body.BrewTaskID
	if brewTaskID == nil {
		brewTaskID = "unknown"
	}

	recipients := strings.Split(orDefault(body.Recipients, "unknown"), ",")

	ciTier := body.CITier
	if ciTier == nil {
		ciTier = []string{"unknown"}
	}

	testType := "unknown"
	if brewTaskID != "unknown" {
		testType = "koji_build"
	}
	if buildType == "scratch" {
		testType += "_scratch"
	}

	groupRefURL := body.JenkinsBuildURL
	consoleURL := strings.TrimRight(groupRefURL, "/") + "/console"
	groups := []models.Group{{UUID: uuid.New().String(), RefURL: groupRefURL}}

	overall := outcome.Passed
	for _, test := range body.Tests {
		result := outcome.Failed
		if failed, ok := intValue(test["failed"]); ok && failed == 0 {
			result = outcome.Passed
		} else {
			overall = outcome.Failed
		}

		executor, _ := test["executor"].(string)
		if executor == "" {
			executor = "unknown"
		}

		data := models.ResultData{}
		for k, v := range test {
			data[k] = v
		}
		data["item"] = component
		data["type"] = testType
		data["recipients"] = recipients
		data["CI_tier"] = ciTier
		data["job_name"] = testName
		data["artifact"] = artifactName
		data["brew_task_id"] = brewTaskID
		setPublisher(data, msg)

		sub := models.Submission{
			Testcase: models.TestCase{
				Name:   fmt.Sprintf("%s.%s.%s", team, testName, executor),
				RefURL: body.JenkinsJobURL,
			},
			Outcome: result,
			RefURL:  consoleURL,
			Data:    data,
			Groups:  groups,
		}
		if err := d.api.SubmitResult(ctx, sub); err != nil {
			return fmt.Errorf("submit sub-test result: %w", err)
		}
	}

	// The aggregate result for the whole job.
	data := models.ResultData{
		"item":         component,
		"type":         testType,
		"recipients":   recipients,
		"CI_tier":      ciTier,
		"job_name":     testName,
		"artifact":     artifactName,
		"brew_task_id": brewTaskID,
	}
	setPublisher(data, msg)

	sub := models.Submission{
		Testcase: models.TestCase{
			Name:   fmt.Sprintf("%s.%s", team, testName),
			RefURL: body.JenkinsJobURL,
		},
		Outcome: overall,
		RefURL:  consoleURL,
		Data:    data,
		Groups:  groups,
	}
	if err := d.api.SubmitResult(ctx, sub); err != nil {
		return fmt.Errorf("submit aggregate result: %w", err)
	}

	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// intValue coerces a JSON number or numeric string into an int.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
