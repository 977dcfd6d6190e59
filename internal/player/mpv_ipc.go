package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/haven/internal/log"
)

// ErrNotConnected is returned when a command is sent before the IPC connection exists
var ErrNotConnected = errors.New("not connected to mpv")

// IPCClient speaks mpv's JSON IPC protocol: one JSON object per line in both directions
type IPCClient struct {
	socketPath string

	writeMu   sync.Mutex
	conn      net.Conn
	requestID int

	messages  chan Message
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Message is one line received from mpv.  Property changes carry Name and Data; end-file carries Reason.
type Message struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewIPCClient creates a client for the given socket or named pipe
func NewIPCClient(socketPath string) *IPCClient {
	return &IPCClient{
		socketPath: socketPath,
		messages:   make(chan Message, 100),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// newIPCClientConn wraps an already established connection
func newIPCClientConn(conn net.Conn) *IPCClient {
	c := NewIPCClient("")
	c.attach(conn)
	return c
}

// Connect establishes a connection with mpv
func (c *IPCClient) Connect(ctx context.Context) error {
	conn, err := dial(ctx, c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv at %s: %w", c.socketPath, err)
	}
	c.attach(conn)
	return nil
}

func (c *IPCClient) attach(conn net.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	go c.readMessages(conn)
}

// WaitForConnection attempts to connect to mpv with retries
func (c *IPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Unix sockets show up on the filesystem before they accept connections
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); errors.Is(err, os.ErrNotExist) {
				log.Trace("mpv socket does not exist yet", "attempt", attempt)
				if err := sleepCtx(ctx, retryDelay); err != nil {
					return err
				}
				continue
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Debug("Connected to mpv", "attempt", attempt)
			return nil
		}
		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		if err := sleepCtx(ctx, retryDelay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Close closes the connection.  The message channel is closed once the reader has stopped.
func (c *IPCClient) Close() error {
	c.writeMu.Lock()
	conn := c.conn
	c.conn = nil
	c.writeMu.Unlock()

	if conn == nil {
		return nil
	}
	c.closeOnce.Do(func() { close(c.closing) })
	err := conn.Close()
	<-c.done
	return err
}

func (c *IPCClient) readMessages(conn net.Conn) {
	defer close(c.done)
	defer close(c.messages)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		log.Trace("Raw mpv message", "data", string(line))

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Warn("Failed to unmarshal mpv message", "error", err)
			continue
		}
		// Command replies only matter when they failed
		if msg.Event == "" {
			if msg.Error != "" && msg.Error != "success" {
				log.Debug("mpv command failed", "request_id", msg.RequestID, "error", msg.Error)
			}
			continue
		}
		select {
		case c.messages <- msg:
		case <-c.closing:
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn("Error reading from mpv socket", "error", err)
	}
	log.Debug("mpv message reader stopped")
}

// Messages returns the channel of asynchronous mpv events
func (c *IPCClient) Messages() <-chan Message {
	return c.messages
}

// Command sends a command to mpv without waiting for the reply
func (c *IPCClient) Command(args ...any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	c.requestID++
	data, err := json.Marshal(map[string]any{
		"command":    args,
		"request_id": c.requestID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// ObserveProperty asks mpv to report changes of a property
func (c *IPCClient) ObserveProperty(id int, name string) error {
	return c.Command("observe_property", id, name)
}

// SetProperty sets an mpv property
func (c *IPCClient) SetProperty(name string, value any) error {
	return c.Command("set_property", name, value)
}
