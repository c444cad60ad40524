// Package frontend defines the events browsers and other clients report to
// the ingestion endpoint, and how each one maps onto the metrics registry.
package frontend

import (
	"encoding/json"
	"errors"
)

// ErrNotObject is returned when an ingestion body is valid JSON but not an
// object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Event types on the wire.
const (
	TypePageView = "page_view"
	TypeAction   = "action"
	TypeError    = "error"
	TypeAPICall  = "api_call"
)

// Action statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Payload is the JSON body accepted by the ingestion endpoint.
// Which fields are meaningful depends on Type.
type Payload struct {
	Type      string   `json:"type"`
	Page      string   `json:"page,omitempty"`
	Referrer  string   `json:"referrer,omitempty"`
	Action    string   `json:"action,omitempty"`
	Status    string   `json:"status,omitempty"`
	Duration  *float64 `json:"duration,omitempty"` // milliseconds
	ErrorType string   `json:"error_type,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	Method    string   `json:"method,omitempty"`
}

// Parse decodes a complete ingestion body. Anything other than exactly one
// JSON object is an error. Fields of an unexpected JSON type are treated as
// absent.
func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// UnmarshalJSON decodes leniently: a field whose value has the wrong JSON
// type is left at its zero value instead of failing the whole payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ErrNotObject
	}
	if fields == nil {
		return ErrNotObject
	}

	*p = Payload{
		Type:      stringField(fields, "type"),
		Page:      stringField(fields, "page"),
		Referrer:  stringField(fields, "referrer"),
		Action:    stringField(fields, "action"),
		Status:    stringField(fields, "status"),
		ErrorType: stringField(fields, "error_type"),
		Endpoint:  stringField(fields, "endpoint"),
		Method:    stringField(fields, "method"),
	}
	if raw, ok := fields["duration"]; ok {
		var d *float64
		if json.Unmarshal(raw, &d) == nil {
			p.Duration = d
		}
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// Event is one of PageView, Action, Error, APICall or Unknown.
type Event interface {
	isEvent()
}

type PageView struct {
	Page     string
	Referrer string
}

// Action is a timed user interaction. HasDuration is false when the client
// did not report a duration.
type Action struct {
	Action      string
	Status      string
	DurationMs  float64
	HasDuration bool
}

type Error struct {
	Action    string
	ErrorType string
}

type APICall struct {
	Endpoint string
	Method   string
	Status   string
}

// Unknown carries a type tag this server does not handle.
type Unknown struct {
	Type string
}

func (PageView) isEvent() {}
func (Action) isEvent()   {}
func (Error) isEvent()    {}
func (APICall) isEvent()  {}
func (Unknown) isEvent()  {}

// Event resolves the payload into its variant, filling label defaults.
func (p Payload) Event() Event {
	switch p.Type {
	case TypePageView:
		return PageView{
			Page:     or(p.Page, "/"),
			Referrer: or(p.Referrer, "direct"),
		}
	case TypeAction:
		a := Action{
			Action: or(p.Action, "unknown"),
			Status: or(p.Status, StatusSuccess),
		}
		if p.Duration != nil {
			a.DurationMs = *p.Duration
			a.HasDuration = true
		}
		return a
	case TypeError:
		return Error{
			Action:    or(p.Action, "unknown"),
			ErrorType: or(p.ErrorType, "unknown"),
		}
	case TypeAPICall:
		return APICall{
			Endpoint: or(p.Endpoint, "unknown"),
			Method:   or(p.Method, "GET"),
			Status:   or(p.Status, "unknown"),
		}
	default:
		return Unknown{Type: p.Type}
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
