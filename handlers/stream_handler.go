package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photomind/photomindbackend/importer"
)

// StreamHandler serves import progress as Server-Sent Events.
type StreamHandler struct {
	Tasks  *importer.Store
	Broker *importer.Broker
}

// StreamEvents streams a task's pipeline events until the task reaches
// a terminal state or the client disconnects. Subscribers joining after
// the task finished get a single terminal event and the stream closes;
// events published before subscribing are not replayed.
func (h *StreamHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Tasks.Get(taskID)
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "task_not_found", fmt.Sprintf("import task '%s' does not exist", taskID))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if task.Status.IsTerminal() {
		writeSSE(w, flusher, terminalEventFor(task))
		return
	}

	// subscribe before re-reading the snapshot so a terminal transition
	// between the two cannot be missed
	events := h.Broker.Subscribe(taskID)
	defer h.Broker.Unsubscribe(taskID, events)

	task, err = h.Tasks.Get(taskID)
	if err == nil && task.Status.IsTerminal() {
		writeSSE(w, flusher, terminalEventFor(task))
		return
	}

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			writeSSE(w, flusher, event)
			if event.Type.IsTerminal() {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event importer.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("stream: failed to marshal %s event: %v", event.Type, err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// terminalEventFor reconstructs the closing event for a task that
// already finished.
func terminalEventFor(task importer.Task) importer.Event {
	if task.Status == importer.StatusFailed && task.Error != "" && task.Processed == 0 {
		return importer.Event{
			Type: importer.EventError,
			Data: map[string]interface{}{"error": task.Error},
		}
	}
	return importer.Event{
		Type: importer.EventImportComplete,
		Data: map[string]interface{}{
			"total":     task.Total,
			"processed": task.Processed,
			"failed":    task.Failed,
			"status":    string(task.Status),
			"message":   task.Message,
		},
	}
}
