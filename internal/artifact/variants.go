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

package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bcem/resultsbridge/internal/models"
)

// setContact copies the ci contact block into the result data. Absent
// fields are omitted, never sent as null.
func setContact(data models.ResultData, ci Contact) {
	data.Set("ci_name", ci.Name)
	data.Set("ci_team", ci.Team)
	data.Set("ci_url", ci.URL)
	data.Set("ci_irc", ci.IRC)
	data.Set("ci_email", ci.Email)
}

func extractCompose(b *Body, sys System) (models.ResultData, error) {
	composeID := b.Artifact.composeID()
	if composeID == "" {
		return nil, fmt.Errorf("productmd-compose artifact has neither id nor compose_id")
	}
	if sys.Architecture == "" {
		return nil, fmt.Errorf("productmd-compose message has no system architecture")
	}
	if sys.Provider == "" {
		return nil, fmt.Errorf("productmd-compose message has no system provider")
	}

	variant := sys.Variant
	if variant == "" {
		variant = "unknown"
	}
	item := fmt.Sprintf("%s/%s/%s", composeID, variant, sys.Architecture)

	data := models.ResultData{}
	data.Set("item", item)
	setContact(data, b.CI)
	data.Set("log", b.Run.Log)
	data.Set("type", b.Artifact.Type)
	data.Set("productmd.compose.id", composeID)
	data.Set("system_provider", sys.Provider)
	data.Set("system_architecture", sys.Architecture)
	data.Set("system_variant", sys.Variant)
	data.Set("category", b.Category)
	return data, nil
}

func extractComponentVersion(b *Body, _ System) (models.ResultData, error) {
	if b.Artifact.Component == "" || b.Artifact.Version == "" {
		return nil, fmt.Errorf("component-version artifact is missing component or version")
	}

	data := models.ResultData{}
	data.Set("item", fmt.Sprintf("%s-%s", b.Artifact.Component, b.Artifact.Version))
	setContact(data, b.CI)
	data.Set("log", b.Run.Log)
	data.Set("type", b.Artifact.Type)
	data.Set("component", b.Artifact.Component)
	data.Set("version", b.Artifact.Version)
	data.Set("category", b.Category)
	return data, nil
}

func extractContainerImage(b *Body, sys System) (models.ResultData, error) {
	repo := b.Artifact.Repository
	if repo == "" {
		return nil, fmt.Errorf("container-image artifact has no repository")
	}

	// Digest is usually present but not guaranteed; the item degrades to
	// the bare repository rather than failing the message.
	item := repo
	if b.Artifact.Digest != "" {
		item = fmt.Sprintf("%s@%s", repo, b.Artifact.Digest)
	}

	data := models.ResultData{}
	data.Set("item", item)
	setContact(data, b.CI)
	data.Set("ci_environment", b.CI.Environment)
	data.Set("log", b.Run.Log)
	data.Set("rebuild", b.Run.Rebuild)
	data.Set("xunit", b.XUnit)
	data.Set("type", b.Artifact.Type)
	data.Set("repository", b.Artifact.Repository)
	data.Set("digest", b.Artifact.Digest)
	data.Set("format", b.Artifact.Format)
	data.Set("pull_ref", b.Artifact.PullRef)
	data.Set("scratch", b.Artifact.Scratch)
	data.Set("nvr", b.Artifact.NVR)
	data.Set("issuer", b.Artifact.Issuer)
	data.Set("system_os", sys.OS)
	data.Set("system_provider", sys.Provider)
	data.Set("system_architecture", sys.Architecture)
	data.Set("category", b.Category)
	return data, nil
}

// Module messages delimit the NSVC with ':'. Stream names may
// contain '-', which MBS changes to '_' when importing to koji, so the
// reconstructed item has to use the underscore form.
var nsvcRegex = regexp.MustCompile(`^(.*):(.*):(.*):(.*)$`)

func extractModule(b *Body, sys System) (models.ResultData, error) {
	m := nsvcRegex.FindStringSubmatch(b.Artifact.NSVC)
	if m == nil {
		return nil, fmt.Errorf("invalid nsvc %q", b.Artifact.NSVC)
	}
	name, stream, version, context := m[1], m[2], m[3], m[4]
	stream = strings.ReplaceAll(stream, "-", "_")
	nsvc := fmt.Sprintf("%s-%s-%s.%s", name, stream, version, context)

	data := models.ResultData{}
	data.Set("item", nsvc)
	data.Set("type", b.Artifact.Type)
	data.Set("mbs_id", b.Artifact.ID)
	data.Set("category", b.Category)
	data.Set("context", b.Artifact.Context)
	data.Set("name", b.Artifact.Name)
	data.Set("nsvc", nsvc)
	data.Set("stream", b.Artifact.Stream)
	data.Set("version", b.Artifact.Version)
	data.Set("issuer", b.Artifact.Issuer)
	data.Set("rebuild", b.Run.Rebuild)
	data.Set("log", b.Run.Log)
	data.Set("system_os", sys.OS)
	data.Set("system_provider", sys.Provider)
	setContact(data, b.CI)
	return data, nil
}

// extractBuild handles any artifact type without a dedicated extractor,
// treating it as a generic build result keyed by NVR.
func extractBuild(b *Body, sys System) (models.ResultData, error) {
	if b.Artifact.NVR == "" {
		return nil, fmt.Errorf("artifact of type %q has no nvr", b.Artifact.Type)
	}

	itemType := b.Artifact.Type
	scratch := scratchFlag(b.Artifact.Scratch)
	// Scratch and non-scratch builds need distinct result types.
	if scratch {
		itemType += "_scratch"
	}

	data := models.ResultData{}
	data.Set("item", b.Artifact.NVR)
	data.Set("type", itemType)
	data.Set("brew_task_id", b.Artifact.ID)
	data.Set("category", b.Category)
	data.Set("component", b.Artifact.Component)
	data.Set("scratch", scratch)
	data.Set("issuer", b.Artifact.Issuer)
	data.Set("rebuild", b.Run.Rebuild)
	data.Set("log", b.Run.Log)
	data.Set("system_os", sys.OS)
	data.Set("system_provider", sys.Provider)
	setContact(data, b.CI)
	data.Set("ci_environment", b.CI.Environment)
	return data, nil
}
