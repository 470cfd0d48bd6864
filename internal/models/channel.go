package models

import (
	"fmt"
	"strings"
	"time"
)

type ChannelMode string

const (
	ModeDisabled   ChannelMode = "DISABLED"
	ModeFree       ChannelMode = "FREE"
	ModeRestricted ChannelMode = "RESTRICTED"
)

// AllChannelModes lists the valid modes in the order they are shown to users.
func AllChannelModes() []ChannelMode {
	return []ChannelMode{ModeDisabled, ModeFree, ModeRestricted}
}

// ParseChannelMode accepts a mode name in any case, surrounding spaces ignored.
func ParseChannelMode(s string) (ChannelMode, error) {
	mode := ChannelMode(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range AllChannelModes() {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown channel mode %q", s)
}

// AllowsRelay reports whether anonymous messages may be posted in this mode.
func (m ChannelMode) AllowsRelay() bool {
	return m == ModeFree || m == ModeRestricted
}

func (m ChannelMode) String() string {
	return string(m)
}

// ChannelConfig holds the operating mode of a single channel.
type ChannelConfig struct {
	ChannelID string      `json:"channel_id"`
	Mode      ChannelMode `json:"mode"`
	UpdatedAt time.Time   `json:"updated_at"`
}
