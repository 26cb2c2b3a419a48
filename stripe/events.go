package stripe

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Event describes a change to an object, delivered by webhook or polled
// through events.list.
type Event struct {
	ID              string        `json:"id"`
	Object          string        `json:"object"`
	Type            string        `json:"type"`
	APIVersion      string        `json:"api_version"`
	Data            EventData     `json:"data"`
	Request         *EventRequest `json:"request"`
	PendingWebhooks lenient.Int64 `json:"pending_webhooks"`
	Livemode        bool          `json:"livemode"`
	Created         lenient.Time  `json:"created"`
}

// EventData holds the object the event is about, in the shape of the API
// version the event was rendered with.
type EventData struct {
	Object             json.RawMessage `json:"object"`
	PreviousAttributes map[string]any  `json:"previous_attributes,omitempty"`
}

// EventRequest identifies the API request that caused the event.
type EventRequest struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// DecodeObject unmarshals Data.Object into out, e.g. a *Customer for
// customer.* events.
func (e *Event) DecodeObject(out any) error {
	if len(e.Data.Object) == 0 {
		return errors.New("stripe: event has no data object")
	}
	return json.Unmarshal(e.Data.Object, out)
}

// ObjectType returns the "object" field of Data.Object, e.g. "charge". It
// returns "" when the object is missing or is not a JSON object.
func (e *Event) ObjectType() string {
	var head struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(e.Data.Object, &head); err != nil {
		return ""
	}
	return head.Object
}

// EventListParams filters events.list. Types matches any of several event
// types and takes precedence over Type.
type EventListParams struct {
	ListParams
	Type            string
	Types           []string
	DeliverySuccess *bool
}

func (lp *EventListParams) query() rest.Params {
	p := rest.NewParams()
	if lp == nil {
		return p
	}
	lp.ListParams.apply(p)
	if len(lp.Types) > 0 {
		p.Add("types[]", lp.Types...)
	} else {
		p.Set("type", lp.Type)
	}
	return p.SetBool("delivery_success", lp.DeliverySuccess)
}

// EventsService reads events.
type EventsService struct {
	c *Client
}

// Get returns an event by ID.
func (s *EventsService) Get(ctx context.Context, id string) (*Event, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	var ev Event
	if err := s.c.get(ctx, objectPath("events", id), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// List returns one page of events.
func (s *EventsService) List(ctx context.Context, params *EventListParams) (*List[*Event], error) {
	var page List[*Event]
	if err := s.c.get(ctx, "v1/events", params.query().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every event matching params.
func (s *EventsService) ListAll(ctx context.Context, params *EventListParams) ([]*Event, error) {
	return listAll(ctx, s.c, "v1/events", params.query(), func(ev *Event) string { return ev.ID })
}
