// Package delivery streams stored blobs over HTTP with single byte-range support.
package delivery

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"docvault/internal/http/middleware"
	"docvault/internal/storage"
)

// Target is a resolved blob ready to be sent.
type Target struct {
	// Path is the storage key of the blob.
	Path        string
	ContentType string
	Size        int64
	// Filename is the client-facing name used in Content-Disposition.
	Filename string
}

// Engine writes blobs to fiber responses.
type Engine struct {
	store   storage.Storage
	log     zerolog.Logger
	metrics *Metrics
}

// NewEngine builds a delivery engine. metrics may be nil.
func NewEngine(store storage.Storage, log zerolog.Logger, metrics *Metrics) *Engine {
	return &Engine{store: store, log: log, metrics: metrics}
}

// Deliver answers the request with the whole blob, the requested window, or 416.
// Storage errors are returned before any header is written, so the caller can
// still answer with a JSON error.
func (e *Engine) Deliver(c *fiber.Ctx, t Target) error {
	br, outcome := ParseRange(c.Get(fiber.HeaderRange), t.Size)

	if outcome == RangeUnsatisfiable {
		e.metrics.observe(outcomeUnsatisfiable, 0)
		c.Set(fiber.HeaderAcceptRanges, "bytes")
		c.Set(fiber.HeaderContentRange, "bytes */"+strconv.FormatInt(t.Size, 10))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}

	status, offset, length := fiber.StatusOK, int64(0), t.Size
	if outcome == RangePartial {
		status, offset, length = fiber.StatusPartialContent, br.Start, br.Length()
	}

	if c.Method() == fiber.MethodHead {
		writeHeaders(c, t, status, br)
		c.Response().Header.SetContentLength(int(length))
		return nil
	}

	body, err := e.store.GetRange(c.UserContext(), t.Path, offset, length)
	if err != nil {
		return err
	}
	writeHeaders(c, t, status, br)

	rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	log := e.log.With().
		Str("request_id", rid).
		Str("path", utils.CopyString(c.Path())).
		Str("key", t.Path).
		Logger()

	stream := newBodyWriter(body, length, func(state State, sent int64, cause error) {
		if state == StateCompleted {
			e.metrics.observe(outcomeCompleted, sent)
			log.Debug().Int64("bytes_sent", sent).Msg("stream_completed")
			return
		}
		e.metrics.observe(outcomeAborted, sent)
		log.Warn().
			Err(cause).
			Int64("bytes_sent", sent).
			Int64("bytes_expected", length).
			Msg("stream_aborted")
	})
	// The writer runs on its own goroutine; the fixed size keeps Content-Length.
	c.Context().SetBodyStream(fasthttp.NewStreamReader(stream.stream), int(length))
	return nil
}

func writeHeaders(c *fiber.Ctx, t Target, status int, br ByteRange) {
	c.Status(status)
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, t.ContentType)
	c.Set(fiber.HeaderContentDisposition, ContentDisposition(t.Filename))
	if status == fiber.StatusPartialContent {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, t.Size))
	}
}

// ContentDisposition renders an inline disposition with a percent-encoded name.
func ContentDisposition(name string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return `inline; filename="` + encoded + `"`
}

// State is the lifecycle position of a single response body.
type State int32

const (
	StateIdle State = iota
	StateHeadersResolved
	StateStreaming
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHeadersResolved:
		return "headers_resolved"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// chunkSize bounds how much is handed to the transport between flushes.
const chunkSize = 32 << 10

// bodyWriter copies a blob to the response writer chunk by chunk, flushing
// after each one, and reports the final state exactly once.
type bodyWriter struct {
	src      io.ReadCloser
	expected int64
	sent     int64
	state    atomic.Int32
	done     func(state State, sent int64, cause error)
}

func newBodyWriter(src io.ReadCloser, expected int64, done func(State, int64, error)) *bodyWriter {
	b := &bodyWriter{src: src, expected: expected, done: done}
	b.state.Store(int32(StateHeadersResolved))
	return b
}

func (b *bodyWriter) State() State {
	return State(b.state.Load())
}

// stream copies the blob into w. A write or flush error means the client
// is gone; a read error means storage failed. Either ends the stream as aborted.
func (b *bodyWriter) stream(w *bufio.Writer) {
	cause := b.copy(w)
	b.src.Close()
	if cause == nil && b.sent != b.expected {
		cause = fmt.Errorf("stream ended after %d of %d bytes: %w", b.sent, b.expected, io.ErrUnexpectedEOF)
	}

	final := StateCompleted
	if cause != nil {
		final = StateAborted
	}
	b.state.Store(int32(final))
	if b.done != nil {
		b.done(final, b.sent, cause)
	}
}

func (b *bodyWriter) copy(w *bufio.Writer) error {
	buf := make([]byte, chunkSize)
	for b.sent < b.expected {
		n, rerr := b.src.Read(buf)
		if rem := b.expected - b.sent; int64(n) > rem {
			n = int(rem)
		}
		if n > 0 {
			b.state.CompareAndSwap(int32(StateHeadersResolved), int32(StateStreaming))
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("write body: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush body: %w", err)
			}
			b.sent += int64(n)
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read blob: %w", rerr)
		}
	}
	return nil
}
