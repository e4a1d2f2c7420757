// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"slices"
)

// Channel method names, as stored in notification.methods. The names
// double as the URL schemes the dispatcher builds.
const (
	MethodDesktop    = "desktop"
	MethodPushPlus   = "pushplus"
	MethodBark       = "bark"
	MethodGotify     = "gotify"
	MethodDingTalk   = "dingtalk"
	MethodEmail      = "mailto"
	MethodPushMe     = "pushme"
	MethodPushDeer   = "pushdeer"
	MethodServerChan = "schan"
	MethodSlack      = "slack"
	MethodTelegram   = "tgram"
	MethodWeComBot   = "wecombot"
	MethodDGLab      = "dglab"
)

// KnownMethods lists every channel name in dispatch order.
var KnownMethods = []string{
	MethodDesktop,
	MethodPushPlus,
	MethodBark,
	MethodGotify,
	MethodDingTalk,
	MethodEmail,
	MethodPushMe,
	MethodPushDeer,
	MethodServerChan,
	MethodSlack,
	MethodTelegram,
	MethodWeComBot,
	MethodDGLab,
}

// Bark levels.
var barkLevels = []string{"passive", "timeSensitive", "active", "critical"}

// Notification holds the channel selection and per-channel settings.
type Notification struct {
	IsEnable bool     `yaml:"isEnable"`
	Methods  []string `yaml:"methods"`

	PushPlus   TokenChannel    `yaml:"pushplus"`
	Bark       BarkChannel     `yaml:"bark"`
	Gotify     GotifyChannel   `yaml:"gotify"`
	Email      EmailChannel    `yaml:"email"`
	Telegram   TelegramChannel `yaml:"telegram"`
	PushDeer   PushDeerChannel `yaml:"pushdeer"`
	Slack      SlackChannel    `yaml:"slack"`
	ServerChan TokenChannel    `yaml:"serverchan"`
	DingTalk   TokenChannel    `yaml:"dingtalk"`
	WeComBot   WeComBotChannel `yaml:"wecombot"`
	PushMe     TokenChannel    `yaml:"pushme"`
	Desktop    DesktopChannel  `yaml:"desktop"`
	DGLab      DGLabChannel    `yaml:"dglab"`
}

// Enabled reports whether method is in Methods.
func (n Notification) Enabled(method string) bool {
	return slices.Contains(n.Methods, method)
}

// TokenChannel is a channel configured by a single token.
type TokenChannel struct {
	Token string `yaml:"token"`
}

// BarkChannel configures Bark pushes.
type BarkChannel struct {
	Token string `yaml:"token"`
	Level string `yaml:"level"`
}

// GotifyChannel configures a Gotify server.
type GotifyChannel struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Path   string `yaml:"path"`
	Token  string `yaml:"token"`
	UseTLS bool   `yaml:"use_tls"`
}

// EmailChannel configures SMTP delivery.
type EmailChannel struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	SMTPUser string   `yaml:"smtp_user"`
	SMTPPass string   `yaml:"smtp_pass"`
	ToAddr   []string `yaml:"to_addr"`
	FromAddr string   `yaml:"from_addr"`
	UseTLS   bool     `yaml:"use_tls"`
}

// TelegramChannel configures a bot and target chat.
type TelegramChannel struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// PushDeerChannel configures PushDeer, optionally self-hosted.
type PushDeerChannel struct {
	PushKey string `yaml:"push_key"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	UseTLS  bool   `yaml:"use_tls"`
}

// SlackChannel uses either an incoming webhook (three tokens) or an
// OAuth bot token.
type SlackChannel struct {
	TokenA     string `yaml:"token_a"`
	TokenB     string `yaml:"token_b"`
	TokenC     string `yaml:"token_c"`
	OAuthToken string `yaml:"oauth_token"`
	Channel    string `yaml:"channel"`
}

// WeComBotChannel configures a WeCom group robot.
type WeComBotChannel struct {
	BotKey string `yaml:"bot_key"`
}

// DesktopChannel has no settings; the block exists so the file lists
// every channel.
type DesktopChannel struct{}

// DGLabChannel configures the device pulse sent on notification.
// Interval is seconds between pulses.
type DGLabChannel struct {
	Pulses   []string `yaml:"pulses"`
	Strength int      `yaml:"strength"`
	Channel  string   `yaml:"channel"`
	Interval float64  `yaml:"interval"`
}

// DefaultNotification returns the disabled, empty notification block.
func DefaultNotification() Notification {
	return Notification{
		Methods: []string{},
		Bark:    BarkChannel{Level: "passive"},
		Gotify:  GotifyChannel{Path: "/", UseTLS: true},
		Email:   EmailChannel{SMTPPort: 465, ToAddr: []string{}, UseTLS: true},
		PushDeer: PushDeerChannel{
			UseTLS: true,
		},
		DGLab: DGLabChannel{
			Pulses:   []string{"呼吸"},
			Strength: 10,
			Channel:  "A",
			Interval: 1,
		},
	}
}

func (n Notification) clone() Notification {
	clone := n
	clone.Methods = slices.Clone(n.Methods)
	clone.Email.ToAddr = slices.Clone(n.Email.ToAddr)
	clone.DGLab.Pulses = slices.Clone(n.DGLab.Pulses)
	return clone
}

func (n Notification) validate() []error {
	var errs []error

	seen := make(map[string]bool, len(n.Methods))
	for _, method := range n.Methods {
		if !slices.Contains(KnownMethods, method) {
			errs = append(errs, fmt.Errorf("notification.methods: unknown channel %q", method))
		}
		if seen[method] {
			errs = append(errs, fmt.Errorf("notification.methods: %q listed twice", method))
		}
		seen[method] = true
	}

	if !slices.Contains(barkLevels, n.Bark.Level) {
		errs = append(errs, fmt.Errorf("notification.bark.level must be one of %v, got %q", barkLevels, n.Bark.Level))
	}
	if n.DGLab.Channel != "A" && n.DGLab.Channel != "B" {
		errs = append(errs, fmt.Errorf("notification.dglab.channel must be \"A\" or \"B\", got %q", n.DGLab.Channel))
	}
	if n.DGLab.Strength < 0 || n.DGLab.Strength > 200 {
		errs = append(errs, fmt.Errorf("notification.dglab.strength must be within 0..200, got %d", n.DGLab.Strength))
	}
	if n.DGLab.Interval < 0 {
		errs = append(errs, fmt.Errorf("notification.dglab.interval must not be negative"))
	}
	return errs
}
