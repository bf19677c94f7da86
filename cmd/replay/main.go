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

// ResultsBridge — Message Replay Command
//
// Standalone CLI tool that feeds captured bus messages (one JSON file per
// message, as dumped from the broker) through the normalization pipelines.
// Intended for re-submitting results after an outage or for testing a
// results API deployment.
//
// Usage:
//
//	go run ./cmd/replay/ --dir ./captured-messages [--dry-run]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bcem/resultsbridge/internal/config"
	"github.com/bcem/resultsbridge/internal/handlers"
	"github.com/bcem/resultsbridge/internal/models"
	"github.com/bcem/resultsbridge/internal/resultsdb"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	dirFlag := flag.String("dir", "", "Directory of captured message JSON files (required)")
	dryRunFlag := flag.Bool("dry-run", false, "Decode and log without submitting results")
	flag.Parse()

	if *dirFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --dir is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*dirFlag, "*.json"))
	if err != nil {
		slog.Error("failed to list message files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Error("no .json message files found", "dir", *dirFlag)
		os.Exit(1)
	}

	slog.Info("starting replay", "files", len(files), "dry_run", *dryRunFlag)

	ctx := context.Background()

	var api handlers.Submitter
	if *dryRunFlag {
		api = dryRunSubmitter{}
	} else {
		cfg, err := config.Load()
		if err != nil {
			slog.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		client, err := resultsdb.NewClient(ctx, cfg.ResultsDB)
		if err != nil {
			slog.Error("failed to build results API client", "error", err)
			os.Exit(1)
		}
		api = client
	}

	dispatcher := handlers.NewDispatcher(api)

	start := time.Now()
	processed, failed := 0, 0

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("cannot read message file", "file", path, "error", err)
			failed++
			continue
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Error("cannot decode message file", "file", path, "error", err)
			failed++
			continue
		}

		if err := dispatcher.Dispatch(ctx, &msg); err != nil {
			slog.Error("replay failed for message",
				"file", path,
				"message_id", msg.ID(),
				"error", err,
			)
			failed++
			continue
		}
		processed++
	}

	// --- Summary ---
	slog.Info("replay complete",
		"processed", processed,
		"failed", failed,
		"elapsed", time.Since(start),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

// dryRunSubmitter logs what would be submitted instead of calling the API.
type dryRunSubmitter struct{}

func (dryRunSubmitter) SubmitResult(_ context.Context, sub models.Submission) error {
	var name string
	switch tc := sub.Testcase.(type) {
	case models.TestCase:
		name = tc.Name
	case string:
		name = tc
	default:
		name = fmt.Sprintf("%v", tc)
	}

	groups := make([]string, 0, len(sub.Groups))
	for _, g := range sub.Groups {
		groups = append(groups, g.UUID)
	}

	slog.Info("dry run: would submit result",
		"testcase", name,
		"outcome", sub.Outcome,
		"ref_url", sub.RefURL,
		"groups", strings.Join(groups, ","),
	)
	return nil
}

func (dryRunSubmitter) FindGroup(context.Context, string) (*models.Group, error) {
	return nil, nil
}
