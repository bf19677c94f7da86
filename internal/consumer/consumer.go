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

// Package consumer drains CI notification messages from a Redis list. This
// is the bridge between the bus-facing relay (which mirrors broker messages
// into Redis) and the Go normalization pipelines.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/resultsbridge/internal/models"
)

// Handler processes one decoded bus message to completion.
type Handler interface {
	Dispatch(ctx context.Context, msg *models.Message) error
}

// Consumer pops messages off a Redis queue one at a time and hands them to
// the handler. Messages the handler fails on are pushed back for redelivery.
type Consumer struct {
	rdb       *redis.Client
	queueName string
	handler   Handler

	popTimeout   time.Duration
	retryBackoff time.Duration
}

// New creates a consumer reading from the specified queue.
func New(rdb *redis.Client, queueName string, handler Handler) *Consumer {
	return &Consumer{
		rdb:          rdb,
		queueName:    queueName,
		handler:      handler,
		popTimeout:   5 * time.Second,
		retryBackoff: 10 * time.Second,
	}
}

// Run starts the consume loop. It blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	slog.Info("consumer starting", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopping")
			return
		default:
		}

		res, err := c.rdb.BRPop(ctx, c.popTimeout, c.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			slog.Error("redis BRPOP failed", "error", err)
			c.sleep(ctx, c.retryBackoff)
			continue
		}

		// BRPOP returns [key, value].
		if len(res) != 2 {
			continue
		}

		if err := c.process(ctx, res[1]); err != nil {
			c.requeue(ctx, res[1])
			c.sleep(ctx, c.retryBackoff)
		}
	}
}

// process decodes one queue payload and dispatches it. Payloads that cannot
// be decoded are dropped rather than requeued: they would fail forever.
func (c *Consumer) process(ctx context.Context, payload string) error {
	var msg models.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Error("dropping undecodable queue payload", "error", err)
		return nil
	}

	if err := c.handler.Dispatch(ctx, &msg); err != nil {
		slog.Error("message processing failed, will redeliver",
			"message_id", msg.ID(),
			"topic", msg.Topic,
			"error", err,
		)
		return err
	}
	return nil
}

// requeue pushes the payload to the back of the queue for a later retry.
func (c *Consumer) requeue(ctx context.Context, payload string) {
	if err := c.rdb.LPush(context.WithoutCancel(ctx), c.queueName, payload).Err(); err != nil {
		slog.Error("redis LPUSH for redelivery failed", "error", err)
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Ping checks the Redis connection.
func (c *Consumer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}
