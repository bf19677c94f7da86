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
	"encoding/json"
	"testing"
)

// TestScratchFlag verifies coercion of the scratch field, which arrives
// either as a bool or as free text.
func TestScratchFlag(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{true, true},
		{"true", true},
		{"True", true},
		{"false", false},
		{false, false},
		{nil, false},
		{"", false},
	}

	for _, tt := range tests {
		if got := scratchFlag(tt.value); got != tt.want {
			t.Errorf("scratchFlag(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestNormalizeSystem verifies the mapping-or-sequence quirk is flattened.
func TestNormalizeSystem(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want System
	}{
		{
			name: "single mapping",
			raw:  `{"os": "rhel-8", "provider": "beaker", "architecture": "x86_64"}`,
			want: System{OS: "rhel-8", Provider: "beaker", Architecture: "x86_64"},
		},
		{
			name: "one-element sequence",
			raw:  `[{"architecture": "s390x", "variant": "Server"}]`,
			want: System{Architecture: "s390x", Variant: "Server"},
		},
		{
			name: "empty sequence",
			raw:  `[]`,
			want: System{},
		},
		{
			name: "absent",
			raw:  "",
			want: System{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeSystem(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("normalizeSystem = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestExtractCompose verifies item construction and the deprecated
// compose_id fallback.
func TestExtractCompose(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "productmd-compose", ComposeID: "RHEL-8.2.0-20200404.0"},
		Run:      Run{URL: "https://jenkins.example.com/job/42", Log: "https://jenkins.example.com/job/42/console"},
		CI:       Contact{Name: "compose-ci", Team: "releng", URL: "https://ci.example.com", Email: "releng@example.com"},
		System:   json.RawMessage(`[{"architecture": "ppc64le", "provider": "beaker"}]`),
		Category: "validation",
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["item"] != "RHEL-8.2.0-20200404.0/unknown/ppc64le" {
		t.Errorf("item = %v, want compose/unknown/arch form", data["item"])
	}
	if data["productmd.compose.id"] != "RHEL-8.2.0-20200404.0" {
		t.Errorf("compose id = %v", data["productmd.compose.id"])
	}
	if data["system_provider"] != "beaker" {
		t.Errorf("system_provider = %v", data["system_provider"])
	}
	if _, ok := data["system_variant"]; ok {
		t.Error("absent variant must be omitted, not defaulted")
	}
}

// TestExtractCompose_PreferredID verifies the current id field wins over
// the deprecated compose_id.
func TestExtractCompose_PreferredID(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "productmd-compose", ID: "Fedora-42-20260101.0", ComposeID: "old-id"},
		System:   json.RawMessage(`{"architecture": "x86_64", "variant": "Everything", "provider": "openstack"}`),
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["item"] != "Fedora-42-20260101.0/Everything/x86_64" {
		t.Errorf("item = %v", data["item"])
	}
}

// TestExtractCompose_MissingArchitecture verifies the schema violation path.
func TestExtractCompose_MissingArchitecture(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "productmd-compose", ComposeID: "RHEL-8.2.0-20200404.0"},
	}

	if _, err := Extract(b); err == nil {
		t.Fatal("expected error for missing architecture")
	}
}

// TestExtractCompose_MissingProvider verifies a compose without a system
// provider is rejected rather than submitted with the field missing.
func TestExtractCompose_MissingProvider(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "productmd-compose", ComposeID: "RHEL-9.4.0-20240101.0"},
		System:   json.RawMessage(`{"architecture": "x86_64"}`),
	}

	if _, err := Extract(b); err == nil {
		t.Fatal("expected error for missing provider")
	}
}

// TestExtractComponentVersion verifies the component-version item form.
func TestExtractComponentVersion(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "component-version", Component: "openssl", Version: "3.0.1"},
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["item"] != "openssl-3.0.1" {
		t.Errorf("item = %v, want openssl-3.0.1", data["item"])
	}
	if data["component"] != "openssl" || data["version"] != "3.0.1" {
		t.Errorf("component/version = %v/%v", data["component"], data["version"])
	}
}

// TestExtractContainerImage_MissingDigest verifies the item omits the digest
// segment but repository is still present; the message must not fail.
func TestExtractContainerImage_MissingDigest(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "container-image", Repository: "registry.example.com/ubi9"},
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["item"] != "registry.example.com/ubi9" {
		t.Errorf("item = %v, want bare repository", data["item"])
	}
	if data["repository"] != "registry.example.com/ubi9" {
		t.Errorf("repository = %v", data["repository"])
	}
	if _, ok := data["digest"]; ok {
		t.Error("absent digest must be omitted")
	}
}

// TestExtractContainerImage verifies the full item and optional fields.
func TestExtractContainerImage(t *testing.T) {
	b := &Body{
		Artifact: Artifact{
			Type:       "container-image",
			Repository: "registry.example.com/ubi9",
			Digest:     "sha256:abc123",
			NVR:        "ubi9-1-1",
			Scratch:    false,
		},
		CI:  Contact{Environment: "production"},
		Run: Run{Rebuild: "https://jenkins.example.com/rebuild"},
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["item"] != "registry.example.com/ubi9@sha256:abc123" {
		t.Errorf("item = %v", data["item"])
	}
	if data["scratch"] != false {
		t.Errorf("scratch = %v, want false passthrough", data["scratch"])
	}
	if data["ci_environment"] != "production" {
		t.Errorf("ci_environment = %v", data["ci_environment"])
	}
}

// TestExtractModule verifies NSVC parsing round-trips into the item form
// with hyphens in the stream normalized to underscores.
func TestExtractModule(t *testing.T) {
	b := &Body{
		Artifact: Artifact{
			Type:    "redhat-module",
			NSVC:    "perl-bootstrap:5.30-rhel-8:20200101:abcd1234",
			Name:    "perl-bootstrap",
			Stream:  "5.30-rhel-8",
			Version: "20200101",
			Context: "abcd1234",
		},
		Category: "functional",
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "perl-bootstrap-5.30_rhel_8-20200101.abcd1234"
	if data["item"] != want {
		t.Errorf("item = %v, want %v", data["item"], want)
	}
	if data["nsvc"] != want {
		t.Errorf("nsvc = %v, want %v", data["nsvc"], want)
	}
	// The raw stream keeps its hyphens.
	if data["stream"] != "5.30-rhel-8" {
		t.Errorf("stream = %v", data["stream"])
	}
}

// TestExtractModule_MalformedNSVC verifies the message-scoped error.
func TestExtractModule_MalformedNSVC(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "redhat-module", NSVC: "not-an-nsvc"},
	}

	if _, err := Extract(b); err == nil {
		t.Fatal("expected error for malformed nsvc")
	}
}

// TestExtractBuild verifies the generic build fallback with scratch suffix.
func TestExtractBuild(t *testing.T) {
	b := &Body{
		Artifact: Artifact{
			Type:      "brew-build",
			NVR:       "bash-5.1.8-1.el9",
			Component: "bash",
			Scratch:   "True",
			ID:        float64(123456),
		},
		Category: "tier1",
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["type"] != "brew-build_scratch" {
		t.Errorf("type = %v, want brew-build_scratch", data["type"])
	}
	if data["item"] != "bash-5.1.8-1.el9" {
		t.Errorf("item = %v", data["item"])
	}
	if data["scratch"] != true {
		t.Errorf("scratch = %v, want coerced true", data["scratch"])
	}
	if data["brew_task_id"] != float64(123456) {
		t.Errorf("brew_task_id = %v", data["brew_task_id"])
	}
}

// TestExtract_RecipientsDefault verifies recipients always appear, defaulting
// to an empty list.
func TestExtract_RecipientsDefault(t *testing.T) {
	b := &Body{
		Artifact: Artifact{Type: "brew-build", NVR: "bash-5.1.8-1.el9"},
	}

	data, err := Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recipients, ok := data["recipients"].([]string)
	if !ok || recipients == nil {
		t.Fatalf("recipients = %v, want empty list", data["recipients"])
	}
	if len(recipients) != 0 {
		t.Errorf("recipients = %v, want empty", recipients)
	}

	b.Recipients = []string{"alice", "bob"}
	data, err = Extract(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := data["recipients"].([]string); len(got) != 2 {
		t.Errorf("recipients = %v, want 2 entries", got)
	}
}
