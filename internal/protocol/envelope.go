// Package protocol defines the wire types exchanged with the fling daemon
// and with remote senders over a session channel.
//
// Session traffic is double-wrapped: the outer transport envelope carries
// addressing, and its data field holds a JSON-encoded application message
// whose own data field holds the JSON-encoded payload. Existing senders
// depend on this exact framing, so both levels are preserved as strings
// rather than nested objects.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Well-known application namespaces.
const (
	NamespaceMedia     = "urn:x-cast:com.google.cast.media"
	NamespaceHeartbeat = "urn:x-cast:com.google.cast.tp.heartbeat"
)

// BroadcastAddress targets all connected senders instead of a specific one.
const BroadcastAddress = "*:*"

// TransportEnvelope is the outer envelope on the session channel.
// Inbound envelopes additionally carry a type discriminator.
type TransportEnvelope struct {
	SenderID string `json:"senderId"`
	Type     string `json:"type,omitempty"`
	Data     string `json:"data"`
}

// Transport envelope types observed on inbound session traffic.
const (
	EnvelopeMessage            = "message"
	EnvelopeSenderConnected    = "senderConnected"
	EnvelopeSenderDisconnected = "senderDisconnected"
)

// Message is the inner application envelope. Outbound messages carry a
// namespace; inbound commands carry the request identifier used to
// correlate the eventual status report.
type Message struct {
	Namespace string `json:"namespace,omitempty"`
	Data      string `json:"data"`
	RequestID int    `json:"requestId,omitempty"`
}

// Wrap serializes payload and wraps it in an application envelope on the
// given namespace, returning the envelope as a string ready to be placed
// in a transport envelope's data field.
func Wrap(namespace string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	env, err := json.Marshal(Message{Namespace: namespace, Data: string(data)})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	return string(env), nil
}

// ParseMessage decodes an inner application envelope from the data field
// of a transport envelope.
func ParseMessage(data string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return Message{}, fmt.Errorf("parse application envelope: %w", err)
	}
	return msg, nil
}
