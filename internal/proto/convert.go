package proto

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/statsync/internal/client/models"
)

//go:generate protoc --go_out=. --go_opt=paths=source_relative --go-grpc_out=. --go-grpc_opt=paths=source_relative sync.proto

// ErrBadMessage is returned when a message lacks a required field.
var ErrBadMessage = errors.New("bad sync message")

// PingOK is the Ping status of a healthy remote.
const PingOK = "OK"

func LinesToProto(lines []models.Line) []*Line {
	out := make([]*Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, &Line{Uri: l.URI, Payload: l.Payload})
	}
	return out
}

// LinesFromProto rejects lines without a URI.
func LinesFromProto(lines []*Line) ([]models.Line, error) {
	var out []models.Line
	for i, l := range lines {
		if l.GetUri() == "" {
			return nil, fmt.Errorf("line %d: %w: missing uri", i, ErrBadMessage)
		}
		out = append(out, models.Line{URI: l.GetUri(), Payload: l.GetPayload()})
	}
	return out, nil
}

func AcksToProto(acks []models.Ack) []*Ack {
	out := make([]*Ack, 0, len(acks))
	for _, a := range acks {
		out = append(out, &Ack{Uri: a.URI, Ok: a.OK, Reason: a.Reason})
	}
	return out
}

// AcksFromProto rejects acks without a URI.
func AcksFromProto(acks []*Ack) ([]models.Ack, error) {
	var out []models.Ack
	for i, a := range acks {
		if a.GetUri() == "" {
			return nil, fmt.Errorf("ack %d: %w: missing uri", i, ErrBadMessage)
		}
		out = append(out, models.Ack{URI: a.GetUri(), OK: a.GetOk(), Reason: a.GetReason()})
	}
	return out, nil
}
