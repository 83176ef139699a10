package http

import (
	"io"
	"net/http"
	"sync"
	"time"
)

// KindReady is the first event of every stream.
const KindReady = "ready"

const (
	sseClientBuffer = 16
	sseKeepAlive    = 25 * time.Second
)

var keepAliveFrame = []byte(": keep-alive\n\n")

// encodeEvent renders one SSE frame. Payloads are single-line JSON.
func encodeEvent(kind string, data []byte) []byte {
	frame := make([]byte, 0, len(kind)+len(data)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, kind...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	return append(frame, "\n\n"...)
}

type sseClient struct {
	frames chan []byte
}

// SSEBroker fans encoded frames out to connected stream clients.
type SSEBroker struct {
	mu      sync.Mutex
	clients map[*sseClient]struct{}
}

// NewSSEBroker constructs a broker.
func NewSSEBroker() *SSEBroker {
	return &SSEBroker{clients: make(map[*sseClient]struct{})}
}

// Broadcast implements Sink. The frame is encoded once; a client whose buffer
// is full misses it.
func (b *SSEBroker) Broadcast(kind string, payload []byte) {
	if b == nil {
		return
	}
	frame := encodeEvent(kind, payload)
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		select {
		case client.frames <- frame:
		default:
		}
	}
}

func (b *SSEBroker) subscribe() *sseClient {
	client := &sseClient{frames: make(chan []byte, sseClientBuffer)}
	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.mu.Unlock()
	return client
}

func (b *SSEBroker) unsubscribe(client *sseClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.frames)
	}
}

// Clients returns the number of connected clients.
func (b *SSEBroker) Clients() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// StreamHandler serves the SSE live stream.
type StreamHandler struct {
	broker    *SSEBroker
	keepAlive time.Duration
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *SSEBroker) *StreamHandler {
	return &StreamHandler{broker: broker, keepAlive: sseKeepAlive}
}

// ServeHTTP handles GET /api/v1/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")

	client := h.broker.subscribe()
	defer h.broker.unsubscribe(client)

	if !writeFrame(w, flusher, encodeEvent(KindReady, []byte("{}"))) {
		return
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case frame, ok := <-client.frames:
			if !ok || !writeFrame(w, flusher, frame) {
				return
			}
		case <-keepAlive.C:
			if !writeFrame(w, flusher, keepAliveFrame) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(w io.Writer, flusher http.Flusher, frame []byte) bool {
	if _, err := w.Write(frame); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
