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

package topics

import "testing"

// TestNamespaceFromTopic verifies structured-topic parsing and the absence
// marker for every other shape.
func TestNamespaceFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{
			topic: "/topic/VirtualTopic.eng.ci.baseos-ci.brew-build.test.complete",
			want:  "baseos-ci",
		},
		{
			topic: "/topic/VirtualTopic.eng.ci.pipeline.compose.test.error",
			want:  "pipeline",
		},
		{
			// Missing prefix
			topic: "/topic/VirtualTopic.eng.pipeline.compose.test.error",
			want:  "",
		},
		{
			// Too many components
			topic: "/topic/VirtualTopic.eng.ci.baseos-ci.brew-build.test.functional.complete",
			want:  "",
		},
		{
			// Too few components
			topic: "/topic/VirtualTopic.eng.ci.brew-build.complete",
			want:  "",
		},
		{
			topic: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := NamespaceFromTopic(tt.topic); got != tt.want {
				t.Errorf("NamespaceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

// TestNamespaceFromTestcase verifies the leading segment extraction.
func TestNamespaceFromTestcase(t *testing.T) {
	if got := NamespaceFromTestcase("baseos-ci.brew-build.tier1.functional"); got != "baseos-ci" {
		t.Errorf("namespace = %q, want baseos-ci", got)
	}
	if got := NamespaceFromTestcase("nodots"); got != "nodots" {
		t.Errorf("namespace = %q, want nodots", got)
	}
}

// TestVerify covers the permissive old-scheme fallback and structured
// namespace matching.
func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		testcase string
		want     bool
	}{
		{
			name:     "matching namespace",
			topic:    "/topic/VirtualTopic.eng.ci.baseos-ci.brew-build.test.complete",
			testcase: "baseos-ci.brew-build.tier1.functional",
			want:     true,
		},
		{
			name:     "mismatched namespace blocks submission",
			topic:    "/topic/VirtualTopic.eng.ci.osci.brew-build.test.complete",
			testcase: "baseos-ci.brew-build.tier1.functional",
			want:     false,
		},
		{
			name:     "old unstructured topic is allowed",
			topic:    "/topic/VirtualTopic.eng.platformci.builds.done",
			testcase: "baseos-ci.brew-build.tier1.functional",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.topic, tt.testcase); got != tt.want {
				t.Errorf("Verify = %v, want %v", got, tt.want)
			}
		})
	}
}
