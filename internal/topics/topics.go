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

// Package topics parses bus topic strings and cross-checks their namespace
// against derived test case names.
package topics

import (
	"log/slog"
	"strings"
)

// Prefix is the fixed leading segment of the structured topic scheme:
//
//	/topic/VirtualTopic.eng.ci.<namespace>.<artifact>.<event>.{queued,running,complete,error}
const Prefix = "/topic/VirtualTopic.eng.ci."

// topicComponents is the exact dot-component count of a structured topic,
// including the two dots inside the prefix.
const topicComponents = 7

// NamespaceFromTopic returns the namespace component of a structured topic,
// or "" if the topic does not follow the structured scheme.
func NamespaceFromTopic(topic string) string {
	if !strings.HasPrefix(topic, Prefix) {
		return ""
	}

	parts := strings.Split(topic, ".")
	if len(parts) != topicComponents {
		return ""
	}

	return parts[3]
}

// NamespaceFromTestcase returns the component of a test case name before
// the first dot.
func NamespaceFromTestcase(testcaseName string) string {
	return strings.SplitN(testcaseName, ".", 2)[0]
}

// Verify checks that a topic carries the same namespace as the test case
// name derived from the message. Topics still using the old unstructured
// scheme are let through with a warning; this shim can go away once every
// producer publishes structured topics.
//
// Returns false only when a structured topic's namespace does not match,
// which suppresses submission for the message.
func Verify(topic, testcaseName string) bool {
	topicNamespace := NamespaceFromTopic(topic)
	if topicNamespace == "" {
		slog.Warn("message topic uses old scheme without namespace",
			"topic", topic,
			"testcase", testcaseName,
		)
		// Old topics are allowed for now.
		return true
	}

	testcaseNamespace := NamespaceFromTestcase(testcaseName)
	if testcaseNamespace != topicNamespace {
		slog.Warn("test case namespace does not match topic namespace",
			"testcase", testcaseName,
			"testcase_namespace", testcaseNamespace,
			"topic", topic,
			"topic_namespace", topicNamespace,
		)
		return false
	}

	return true
}
