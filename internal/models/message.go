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

// Package models defines the data structures shared across the results bridge.
package models

import "encoding/json"

// Message is a single CI notification as delivered from the message bus.
// The payload schema under Body.Msg varies per producer, so it is kept raw
// and decoded by the pipeline that handles it.
type Message struct {
	Topic   string            `json:"topic"`
	Headers map[string]string `json:"headers"`
	Body    MessageBody       `json:"body"`
}

// MessageBody wraps the variant-specific payload.
type MessageBody struct {
	Msg json.RawMessage `json:"msg"`
}

// ID returns the bus message identifier, or "" if the header is absent.
func (m *Message) ID() string {
	return m.Headers["message-id"]
}

// PublisherID returns the JMSXUserID header identifying the publisher,
// or "" if the header is absent.
func (m *Message) PublisherID() string {
	return m.Headers["JMSXUserID"]
}
