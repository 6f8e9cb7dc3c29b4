// Copyright 2026 Blink Labs Software
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

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
)

const eventStreamBuffer = 64

var errEventStreamFull = errors.New("event stream buffer full")

// EventMessage is a single server-sent event payload
type EventMessage struct {
	Type      event.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      any             `json:"data"`
}

// eventStream adapts an HTTP client to the event bus. A slow client is
// dropped rather than blocking delivery.
type eventStream struct {
	ch     chan event.Event
	mu     sync.Mutex
	closed bool
}

func newEventStream() *eventStream {
	return &eventStream{
		ch: make(chan event.Event, eventStreamBuffer),
	}
}

func (e *eventStream) Deliver(evt event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("event stream closed")
	}
	select {
	case e.ch <- evt:
		return nil
	default:
		return errEventStreamFull
	}
}

func (e *eventStream) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal", "streaming not supported")
		return
	}
	eventTypes := governance.EventTypes
	if filter := r.URL.Query()["type"]; len(filter) > 0 {
		eventTypes = nil
		for _, tmp := range filter {
			evtType := event.EventType(tmp)
			if !slices.Contains(governance.EventTypes, evtType) {
				writeBadRequest(w, fmt.Errorf("unknown event type %q", tmp))
				return
			}
			eventTypes = append(eventTypes, evtType)
		}
	}

	stream := newEventStream()
	subIds := make(map[event.EventType]event.EventSubscriberId, len(eventTypes))
	for _, evtType := range eventTypes {
		subIds[evtType] = s.eventBus.RegisterSubscriber(evtType, stream)
	}
	defer func() {
		for evtType, subId := range subIds {
			s.eventBus.Unsubscribe(evtType, subId)
		}
		stream.Close()
	}()

	// Headers go out after the subscription exists so a client never misses
	// an event published after it sees the response
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	shutdownCh := s.shutdownChan()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-shutdownCh:
			return
		case evt, ok := <-stream.ch:
			if !ok {
				return
			}
			data, err := json.Marshal(EventMessage{
				Type:      evt.Type,
				Timestamp: evt.Timestamp,
				Data:      evt.Data,
			})
			if err != nil {
				s.logger.Error("failed to marshal event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}
