// Package remote carries leaderboard requests between the game and
// leaderboardd over a websocket, one msgpack-encoded binary frame per message.
package remote

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	OpReadAll = "read_all"
	OpAdjust  = "adjust"
)

// Request is a client to server frame.
type Request struct {
	ID    string `msgpack:"id"`
	Op    string `msgpack:"op"`
	Level int    `msgpack:"level,omitempty"`
	Shots int    `msgpack:"shots,omitempty"`
	Delta int64  `msgpack:"delta,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	ID     string                `msgpack:"id"`
	Error  string                `msgpack:"error,omitempty"`
	Levels map[int]map[int]int64 `msgpack:"levels,omitempty"`
}

func encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

func decodeRequest(data []byte) (Request, error) {
	var req Request
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func decodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
