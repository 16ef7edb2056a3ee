package testmod

import (
	"context"
	"errors"
)

// Connect opens a client.
func Connect(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	return &Client{Addr: addr}, nil
}

// Ping checks the connection.
//
// Deprecated: use Client.Send.
func Ping() {}

func Sum(a, b int) int {
	return a + b
}

func Join(sep string, parts ...string) string {
	return ""
}

func GetUserInfo(id string) (map[string]string, error) {
	return nil, nil
}

type Option func(*Client)

// Client talks to the server.
type Client struct {
	Addr    string
	Timeout int
	Retries int
	secret  string
}

func (c *Client) Close() error { return nil }

func (c *Client) Send(msg string, urgent bool) error { return nil }

type Handler interface {
	Handle(ctx context.Context, req string) (string, error)
	Close() error
	Name() string
}

type Token string

func (t Token) String() string { return string(t) }

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
)

const MaxRetries = 5

var ErrNotFound = errors.New("not found")

var DefaultClient = &Client{}
