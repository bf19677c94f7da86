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

// Package intake receives CI bus messages over HTTP and mirrors them into
// the Redis queue drained by the consumer. Broker-side relays that cannot
// talk to Redis directly POST each message here.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/resultsbridge/internal/models"
)

// Enqueuer pushes one message onto the consume queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *models.Message) error
}

// Queue enqueues messages into a Redis list.
type Queue struct {
	rdb       *redis.Client
	queueName string
}

// NewQueue creates a queue writer targeting the specified Redis list.
func NewQueue(rdb *redis.Client, queueName string) *Queue {
	return &Queue{rdb: rdb, queueName: queueName}
}

// Enqueue serialises the message and pushes it to the head of the list; the
// consumer pops from the tail, so delivery is FIFO.
func (q *Queue) Enqueue(ctx context.Context, msg *models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.queueName, string(payload)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Debug("enqueued message",
		"message_id", msg.ID(),
		"topic", msg.Topic,
		"queue", q.queueName,
	)
	return nil
}

// Handler accepts messages POSTed by a bus relay.
type Handler struct {
	queue Enqueuer
}

// NewHandler creates a message intake handler.
func NewHandler(queue Enqueuer) *Handler {
	return &Handler{queue: queue}
}

// ServeMessage handles POST /messages. The body is one message envelope:
// topic, headers, and the raw broker payload under body.msg. The message is
// accepted as soon as it is durably queued; normalization happens async in
// the consumer.
func (h *Handler) ServeMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.Warn("rejecting undecodable intake payload", "error", err)
		http.Error(w, "invalid message envelope", http.StatusBadRequest)
		return
	}
	if msg.Topic == "" || len(msg.Body.Msg) == 0 {
		http.Error(w, "message needs topic and body.msg", http.StatusBadRequest)
		return
	}

	if err := h.queue.Enqueue(r.Context(), &msg); err != nil {
		slog.Error("failed to enqueue message",
			"message_id", msg.ID(),
			"error", err,
		)
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}

	slog.Info("accepted message",
		"message_id", msg.ID(),
		"topic", msg.Topic,
	)
	w.WriteHeader(http.StatusAccepted)
}
