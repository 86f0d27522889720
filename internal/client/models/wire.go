package models

// Line is one record as exchanged with the remote: the full wire URI and
// the text payload. Tombstones carry no payload.
type Line struct {
	URI     string
	Payload string
}

// Ack is the remote's verdict on one pushed line. URI echoes the pushed form.
type Ack struct {
	URI    string
	OK     bool
	Reason string
}
