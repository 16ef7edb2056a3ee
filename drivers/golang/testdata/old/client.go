package testmod

import (
	"context"
	"errors"
)

// Connect opens a client.
func Connect(ctx context.Context, addr string) (*Client, error) {
	return &Client{Addr: addr}, nil
}

func Ping() {}

func Sum(a, b int) int {
	return a + b
}

func Join(sep string, parts ...string) string {
	return ""
}

func GetUserData(id string) (map[string]string, error) {
	return nil, nil
}

// Client talks to the server.
type Client struct {
	Addr    string
	Timeout int
	secret  string
}

func (c *Client) Close() error { return nil }

func (c *Client) Send(msg string) error { return nil }

type Handler interface {
	Handle(ctx context.Context, req string) (string, error)
	Close() error
}

type Token string

func (t Token) String() string { return string(t) }

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
)

const MaxRetries = 3

var ErrNotFound = errors.New("not found")

var DefaultClient = &Client{}

type unexported struct{}

func (u *unexported) Hidden() {}
