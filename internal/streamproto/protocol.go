package streamproto

import "cells/internal/core"

// Version is the frame stream protocol version.
const Version = "1.0"

// Frame encodings a subscriber may request.
const (
	EncodingJSON = "json"
	EncodingZstd = "zstd"
)

// Client -> Server. First message on the stream WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Encoding selects text JSON frames (default) or zstd-compressed JSON
	// sent as binary messages.
	Encoding string `json:"encoding,omitempty"`
}

// Client -> Server. Overwrites one cell before the next generation.
type PaintMsg struct {
	Type  string     `json:"type"`
	Row   int        `json:"row"`
	Col   int        `json:"col"`
	State core.State `json:"state"`
}

// HTTP response for GET /bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string                  `json:"protocol_version"`
	RunID           string                  `json:"run_id"`
	Sim             string                  `json:"sim"`
	Width           int                     `json:"width"`
	Height          int                     `json:"height"`
	Generation      uint64                  `json:"generation"`
	Parameters      *core.ParameterSnapshot `json:"parameters,omitempty"`
}

// Server -> Client. Sent after every generation.
type FrameMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Generation      uint64       `json:"generation"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	Cells           []core.State `json:"cells"`
}
