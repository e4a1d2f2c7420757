// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package dglab

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message types.
const (
	TypeBind      = "bind"
	TypeMsg       = "msg"
	TypeHeartbeat = "heartbeat"
	TypeBreak     = "break"
	TypeError     = "error"
)

// Result codes carried in Message.
const (
	CodeOK          = "200"
	CodePeerGone    = "209"
	CodeBound       = "400"
	CodeUnknownPeer = "401"
	CodeNotPaired   = "402"
	CodeBadJSON     = "403"
	CodeTooLong     = "405"
)

const (
	bindRequestToken = "DGLAB"
	assignIDToken    = "targetId"
)

// maxMessageLength is the app's limit on the message field.
const maxMessageLength = 1950

// Frame is one WebSocket message.
type Frame struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	TargetID string `json:"targetId"`
	Message  string `json:"message"`
}

// Channel is an output channel on the device.
type Channel string

const (
	ChannelA Channel = "A"
	ChannelB Channel = "B"
)

// ParseChannel accepts "A" or "B", case-insensitively.
func ParseChannel(value string) (Channel, error) {
	switch Channel(strings.ToUpper(value)) {
	case ChannelA:
		return ChannelA, nil
	case ChannelB:
		return ChannelB, nil
	}
	return "", fmt.Errorf("dglab: unknown channel %q", value)
}

func (c Channel) number() int {
	if c == ChannelB {
		return 2
	}
	return 1
}

// strengthSet is the strength operation that replaces the value;
// 0 and 1 decrease and increase.
const strengthSet = 2

// setStrength is the app command that sets a channel to value.
func setStrength(channel Channel, value int) string {
	return fmt.Sprintf("strength-%d+%d+%d", channel.number(), strengthSet, value)
}

// clearPulses is the app command that drops a channel's queued pulses.
func clearPulses(channel Channel) string {
	return fmt.Sprintf("clear-%d", channel.number())
}

// pulseCommands splits frames into app commands under the message
// length limit.
func pulseCommands(channel Channel, frames []string) ([]string, error) {
	var commands []string
	for start := 0; start < len(frames); {
		end := len(frames)
		for {
			command, err := pulseCommand(channel, frames[start:end])
			if err != nil {
				return nil, err
			}
			if len(command) <= maxMessageLength {
				commands = append(commands, command)
				break
			}
			end = start + (end-start)/2
		}
		start = end
	}
	return commands, nil
}

func pulseCommand(channel Channel, frames []string) (string, error) {
	encoded, err := json.Marshal(frames)
	if err != nil {
		return "", err
	}
	return "pulse-" + string(channel) + ":" + string(encoded), nil
}

// Feedback is the app's report of the device's strength.
type Feedback struct {
	StrengthA, StrengthB           int
	StrengthLimitA, StrengthLimitB int
}

// parseFeedback reads "strength-a+b+limitA+limitB".
func parseFeedback(message string) (Feedback, bool) {
	rest, ok := strings.CutPrefix(message, "strength-")
	if !ok {
		return Feedback{}, false
	}
	var feedback Feedback
	if _, err := fmt.Sscanf(rest, "%d+%d+%d+%d", &feedback.StrengthA, &feedback.StrengthB, &feedback.StrengthLimitA, &feedback.StrengthLimitB); err != nil {
		return Feedback{}, false
	}
	return feedback, true
}
