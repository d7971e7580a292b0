package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandType discriminates sender commands decoded from the inner
// envelope's data field.
type CommandType string

// Commands understood by the receiver. Unrecognized types are skipped by
// the router for forward compatibility.
const (
	CommandLoad      CommandType = "LOAD"
	CommandPause     CommandType = "PAUSE"
	CommandPlay      CommandType = "PLAY"
	CommandSetVolume CommandType = "SET_VOLUME"
	CommandSeek      CommandType = "SEEK"
	CommandPing      CommandType = "PING"
	CommandGetStatus CommandType = "GET_STATUS"
)

// Command is a decoded sender command. Only the fields relevant to the
// command type are populated.
type Command struct {
	Type        CommandType `json:"type"`
	Media       *MediaInfo  `json:"media,omitempty"`
	Volume      *Volume     `json:"volume,omitempty"`
	CurrentTime float64     `json:"currentTime,omitempty"`
}

// MediaInfo describes the media item carried by a LOAD command and echoed
// back in status reports.
type MediaInfo struct {
	ContentID   string        `json:"contentId"`
	ContentType string        `json:"contentType,omitempty"`
	StreamType  string        `json:"streamType,omitempty"`
	Duration    float64       `json:"duration,omitempty"`
	Metadata    MediaMetadata `json:"metadata"`
}

// MediaMetadata is the descriptive metadata block of a media item.
type MediaMetadata struct {
	Title        string  `json:"title,omitempty"`
	Subtitle     string  `json:"subtitle,omitempty"`
	Images       []Image `json:"images,omitempty"`
	MetadataType int     `json:"metadataType,omitempty"`
}

// Image is a metadata artwork reference.
type Image struct {
	URL string `json:"url"`
}

// Volume is the volume block of a SET_VOLUME command and of status reports.
type Volume struct {
	Level float64 `json:"level"`
	Muted bool    `json:"muted,omitempty"`
}

// DecodeCommand parses a command payload from the innermost data string.
func DecodeCommand(data string) (Command, error) {
	var cmd Command
	if err := json.Unmarshal([]byte(data), &cmd); err != nil {
		return Command{}, fmt.Errorf("parse command: %w", err)
	}
	return cmd, nil
}
