/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"time"

	"github.com/Seednode/santabox/santa"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Messages coming from clients. State is an encoded session; every
// command carries the full state it applies to.
type SocketCommand struct {
	Type  string `json:"type"`           // "state", "add", "remove", "generate", "reset", "select", "lookup"
	State string `json:"state"`          // encoded session
	Name  string `json:"name,omitempty"` // add / remove / select / lookup
}

// Messages sent to clients
type SocketReply struct {
	Type         string   `json:"type"`               // "state", "assignment" or "error"
	State        string   `json:"state"`              // encoded session after the command
	Participants []string `json:"participants"`       // decoded roster
	Generated    bool     `json:"generated"`          // assignments exist
	Ready        bool     `json:"ready"`              // a draw can be made
	Selected     string   `json:"selected,omitempty"` // selected participant
	Giver        string   `json:"giver,omitempty"`    // lookup
	Receiver     string   `json:"receiver,omitempty"` // lookup
	Notice       string   `json:"notice,omitempty"`   // user-facing text
}

const (
	socketReadLimit   = 1 << 16
	socketIdleTimeout = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn *websocket.Conn
	send chan SocketReply
	done chan struct{} // closed when writePump returns
}

// deliver queues msg for writePump. It reports false once writePump has
// stopped, so the reader never blocks on a full buffer nobody drains.
func (c *Client) deliver(msg SocketReply) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

func stateReply(s santa.Session, notice string) SocketReply {
	return SocketReply{
		Type:         "state",
		State:        santa.Encode(s),
		Participants: append([]string{}, s.Participants...),
		Generated:    len(s.Assignments) > 0,
		Ready:        s.Ready(),
		Selected:     s.Selected,
		Notice:       notice,
	}
}

// handleCommand applies one command to the state it carries. Nothing
// survives between calls.
func handleCommand(cfg *Config, cmd SocketCommand) SocketReply {
	s, err := santa.Decode(cmd.State)
	recordDecodeFailure(err)

	notice := ""
	if err != nil {
		notice = "Part of this link could not be read and was cleared."
	}

	switch cmd.Type {
	case "state":
	case "add":
		notice = tooManyNotice(cfg, s)
		if notice == "" {
			notice = noticeFor(s.AddParticipant(cmd.Name))
		}
	case "remove":
		s.RemoveParticipant(cmd.Name)
	case "generate":
		err := s.Generate(cfg.rand())
		recordGeneration(err)
		notice = noticeFor(err)
	case "reset":
		s.Reset()
	case "select":
		s.Select(cmd.Name)
	case "lookup":
		if cmd.Name != "" {
			s.Select(cmd.Name)
		}

		a, ok := s.Lookup()
		if !ok {
			reply := stateReply(s, "No assignment found.")
			reply.Type = "error"

			return reply
		}

		reply := stateReply(s, notice)
		reply.Type = "assignment"
		reply.Giver = a.Giver
		reply.Receiver = a.Receiver

		return reply
	default:
		return SocketReply{Type: "error", Participants: []string{}, Notice: "Unknown command."}
	}

	return stateReply(s, notice)
}

func commandLabel(t string) string {
	switch t {
	case "state", "add", "remove", "generate", "reset", "select", "lookup":
		return t
	default:
		return "unknown"
	}
}

func serveSocket(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade for %s failed: %v", realIP(r), err)

			return
		}

		logf(cfg, "SANTA: Websocket opened by %s", realIP(r))

		client := &Client{
			conn: conn,
			send: make(chan SocketReply, 8),
			done: make(chan struct{}),
		}

		go client.writePump()
		client.readPump(cfg)

		logf(cfg, "SANTA: Websocket closed by %s", realIP(r))
	}
}

func (c *Client) readPump(cfg *Config) {
	defer close(c.send)

	c.conn.SetReadLimit(socketReadLimit)

	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(socketIdleTimeout))

		var cmd SocketCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}

		socketMessagesTotal.WithLabelValues(commandLabel(cmd.Type)).Inc()

		if !c.deliver(handleCommand(cfg, cmd)) {
			return
		}
	}
}

func (c *Client) writePump() {
	defer close(c.done)
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
