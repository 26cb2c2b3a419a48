package sample

import "context"

type Client struct{}

type Widget struct{ ID string }

type List[T any] struct{ Data []T }

// Ping checks the API is reachable.
func (c *Client) Ping(ctx context.Context) error { return nil }

// PingNoContext is not an API method.
func (c *Client) PingNoContext() error { return nil }

func (c *Client) Widgets() *WidgetsService { return &WidgetsService{c} }

type WidgetsService struct{ c *Client }

// List returns one page of widgets.
//
// Results are ordered by ID.
func (s *WidgetsService) List(ctx context.Context, limit int, tags ...string) (*List[Widget], error) {
	return nil, nil
}

func (s *WidgetsService) Get(ctx context.Context, id string) (*Widget, error) { return nil, nil }

func (s *WidgetsService) Delete(ctx context.Context, id string) error { return nil }

func (s *WidgetsService) resolve(ctx context.Context, id string) {}

type helper struct{}

func (h helper) Fetch(ctx context.Context) error { return nil }
