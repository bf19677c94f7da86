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

package intake

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bcem/resultsbridge/internal/models"
)

type fakeQueue struct {
	messages []*models.Message
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, msg *models.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func TestServeMessage(t *testing.T) {
	q := &fakeQueue{}
	h := NewHandler(q)

	body := `{
		"topic": "/topic/VirtualTopic.eng.ci.osci.brew-build.test.complete",
		"headers": {"message-id": "id-1"},
		"body": {"msg": {"artifact": {"type": "brew-build"}}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeMessage(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(q.messages) != 1 {
		t.Fatalf("enqueued = %d, want 1", len(q.messages))
	}
	if q.messages[0].ID() != "id-1" {
		t.Errorf("message id = %q", q.messages[0].ID())
	}
}

func TestServeMessage_RejectsGet(t *testing.T) {
	h := NewHandler(&fakeQueue{})

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()

	h.ServeMessage(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestServeMessage_RejectsInvalidEnvelope(t *testing.T) {
	q := &fakeQueue{}
	h := NewHandler(q)

	for _, body := range []string{
		"not json",
		`{"headers": {}}`,                  // no topic
		`{"topic": "/topic/x", "body": {}}`, // no body.msg
	} {
		req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.ServeMessage(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if len(q.messages) != 0 {
		t.Errorf("enqueued = %d, want 0", len(q.messages))
	}
}

func TestServeMessage_QueueUnavailable(t *testing.T) {
	h := NewHandler(&fakeQueue{err: errors.New("redis down")})

	body := `{"topic": "/topic/x", "body": {"msg": {}}}`
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeMessage(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
