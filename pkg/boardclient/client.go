package boardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// connectionIDHeader tags mutating requests with this session's connection
// id so the server excludes this client from its own broadcasts.
const connectionIDHeader = "X-Connection-ID"

// UpdateRequest is the body of a task update. Pointer fields are sent only
// when non-nil; AssignedUserSet distinguishes "unassign" (send null) from
// "leave alone" (omit).
type UpdateRequest struct {
	Version         *int64
	Force           bool
	Title           *string
	Description     *string
	AssignedUser    *string
	AssignedUserSet bool
	Priority        *string
	Status          *string
}

// MarshalJSON emits only the supplied fields, with assignedUser present as
// null when explicitly unassigned.
func (u UpdateRequest) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Version != nil {
		m["version"] = *u.Version
	}
	if u.Force {
		m["force"] = true
	}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.AssignedUserSet {
		if u.AssignedUser != nil {
			m["assignedUser"] = *u.AssignedUser
		} else {
			m["assignedUser"] = nil
		}
	}
	if u.Priority != nil {
		m["priority"] = *u.Priority
	}
	if u.Status != nil {
		m["status"] = *u.Status
	}
	return json.Marshal(m)
}

// CreateRequest is the body of a task create.
type CreateRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	AssignedUser *string `json:"assignedUser,omitempty"`
	Priority     string  `json:"priority,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// ConflictError is returned when the server rejects an update on the
// version gate. It carries everything the reconciler needs.
type ConflictError struct {
	Message    string         `json:"message"`
	ServerTask Task           `json:"serverTask"`
	ClientTask map[string]any `json:"clientTask"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: server has version %d", e.ServerTask.Version)
}

// APIError is any non-conflict error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the board service. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	connID  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (to carry the session
// cookie jar, custom timeouts, etc.).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConnectionID pins the connection id instead of generating one.
func WithConnectionID(id string) Option {
	return func(c *Client) { c.connID = id }
}

// New creates a Client for the service at baseURL. A fresh connection id is
// generated for this session; Dial and every mutating request share it.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		connID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ConnectionID returns the per-session connection id.
func (c *Client) ConnectionID() string { return c.connID }

/* ------------------------------ REST ------------------------------ */

// ListRooms returns the caller's rooms.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &out)
	return out.Rooms, err
}

// CreateRoom creates a room; the caller becomes its first member.
func (c *Client) CreateRoom(ctx context.Context, name string) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": name}, &out)
	return out.Room, err
}

// OpenRoom joins the caller to the room and returns the full board state.
func (c *Client) OpenRoom(ctx context.Context, roomID string) (BoardState, error) {
	var out BoardState
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+roomID, nil, &out)
	return out, err
}

// RenameRoom changes the room's name.
func (c *Client) RenameRoom(ctx context.Context, roomID, name string) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/rooms/"+roomID, map[string]string{"name": name}, &out)
	return out.Room, err
}

// LeaveRoom removes the caller from the room's membership.
func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/leave", nil, nil)
}

// DeleteRoom deletes the room and cascades its tasks and logs. Creator
// only.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodDelete, "/api/rooms/"+roomID, nil, nil)
}

// ListTasks returns every task in the room.
func (c *Client) ListTasks(ctx context.Context, roomID string) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+roomID+"/tasks", nil, &out)
	return out.Tasks, err
}

// CreateTask creates a task in the room.
func (c *Client) CreateTask(ctx context.Context, roomID string, req CreateRequest) (CreateResult, error) {
	var out CreateResult
	err := c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/tasks", req, &out)
	return out, err
}

// UpdateTask sends a conditional (or forced) update. A version-gate
// rejection comes back as *ConflictError.
func (c *Client) UpdateTask(ctx context.Context, roomID, taskID string, req UpdateRequest) (UpdateResult, error) {
	var out UpdateResult
	err := c.do(ctx, http.MethodPatch, "/api/rooms/"+roomID+"/tasks/"+taskID, req, &out)
	return out, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, roomID, taskID string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, "/api/rooms/"+roomID+"/tasks/"+taskID, nil, &out)
	return out, err
}

// SmartAssign asks the server to assign the task to the least-loaded room
// member. Rides the same version gate as a manual edit.
func (c *Client) SmartAssign(ctx context.Context, roomID, taskID string, version int64) (UpdateResult, error) {
	var out UpdateResult
	err := c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/tasks/"+taskID+"/smart-assign",
		map[string]int64{"version": version}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(connectionIDHeader, c.connID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		// Only a version-gate rejection carries serverTask; other 409s
		// (e.g. smart-assign on an empty room) are plain API errors.
		var conflict ConflictError
		if err := json.Unmarshal(data, &conflict); err == nil && conflict.ServerTask.ID != "" {
			return &conflict
		}
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	case resp.StatusCode >= 400:
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

/* ---------------------------- websocket ---------------------------- */

// Conn is a live websocket subscription. Events arrives in server order;
// the channel closes when the socket drops.
type Conn struct {
	ws     *websocket.Conn
	Events <-chan Event
}

// Dial opens the websocket, registering this client's connection id so the
// server can exclude it from its own broadcasts.
func (c *Client) Dial(ctx context.Context) (*Conn, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"connection_id": {c.connID}}.Encode()

	dialer := websocket.Dialer{Jar: c.http.Jar}
	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	events := make(chan Event, 32)
	go func() {
		defer close(events)
		defer ws.Close()
		for {
			var ev Event
			if err := ws.ReadJSON(&ev); err != nil {
				return
			}
			events <- ev
		}
	}()

	return &Conn{ws: ws, Events: events}, nil
}

// JoinRoom subscribes this connection to a room's broadcasts. The result
// arrives on Events as roomJoined or joinRoomError.
func (c *Conn) JoinRoom(roomID string) error {
	return c.ws.WriteJSON(map[string]string{"type": "joinRoom", "roomId": roomID})
}

// LeaveRoom unsubscribes from a room.
func (c *Conn) LeaveRoom(roomID string) error {
	return c.ws.WriteJSON(map[string]string{"type": "leaveRoom", "roomId": roomID})
}

// Close tears down the socket; Events closes shortly after.
func (c *Conn) Close() error {
	return c.ws.Close()
}
