// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ticketzako/cppticketer/lib/config"
)

// queue collects the deliveries for one push.
type queue struct {
	// urls are shoutrrr service URLs; urlMethods[i] names urls[i].
	urls       []string
	urlMethods []string

	hooks    []webhook
	desktop  bool
	external []string
}

func (q *queue) len() int {
	count := len(q.urls) + len(q.hooks)
	if q.desktop {
		count++
	}
	return count
}

// channel is one registry entry. add reports whether the channel had
// everything it needs and was queued.
type channel interface {
	method() string
	add(q *queue, n config.Notification, endpoints Endpoints) bool
}

// registry returns every channel in delivery order.
func registry() []channel {
	return []channel{
		desktopChannel{},
		webhookChannel{name: config.MethodPushPlus, build: pushPlusHook},
		webhookChannel{name: config.MethodBark, build: barkHook},
		urlChannel{name: config.MethodGotify, build: gotifyURL},
		webhookChannel{name: config.MethodDingTalk, build: dingTalkHook},
		urlChannel{name: config.MethodEmail, build: emailURL},
		webhookChannel{name: config.MethodPushMe, build: pushMeHook},
		webhookChannel{name: config.MethodPushDeer, build: pushDeerHook},
		webhookChannel{name: config.MethodServerChan, build: serverChanHook},
		urlChannel{name: config.MethodSlack, build: slackURL},
		urlChannel{name: config.MethodTelegram, build: telegramURL},
		webhookChannel{name: config.MethodWeComBot, build: weComBotHook},
		externalChannel{name: config.MethodDGLab},
	}
}

// Methods returns the registry's method names in delivery order.
func Methods() []string {
	channels := registry()
	methods := make([]string, len(channels))
	for index, channel := range channels {
		methods[index] = channel.method()
	}
	return methods
}

type desktopChannel struct{}

func (desktopChannel) method() string { return config.MethodDesktop }

func (desktopChannel) add(q *queue, _ config.Notification, _ Endpoints) bool {
	q.desktop = true
	return true
}

// urlChannel is delivered by shoutrrr.
type urlChannel struct {
	name  string
	build func(config.Notification) (string, bool)
}

func (c urlChannel) method() string { return c.name }

func (c urlChannel) add(q *queue, n config.Notification, _ Endpoints) bool {
	serviceURL, ok := c.build(n)
	if !ok {
		return false
	}
	q.urls = append(q.urls, serviceURL)
	q.urlMethods = append(q.urlMethods, c.name)
	return true
}

type webhookChannel struct {
	name  string
	build func(config.Notification, Endpoints) (webhook, bool)
}

func (c webhookChannel) method() string { return c.name }

func (c webhookChannel) add(q *queue, n config.Notification, endpoints Endpoints) bool {
	hook, ok := c.build(n, endpoints)
	if !ok {
		return false
	}
	hook.method = c.name
	q.hooks = append(q.hooks, hook)
	return true
}

// externalChannel queues a method name; the dispatcher resolves it to
// a registered External at send time.
type externalChannel struct {
	name string
}

func (c externalChannel) method() string { return c.name }

func (c externalChannel) add(q *queue, _ config.Notification, _ Endpoints) bool {
	q.external = append(q.external, c.name)
	return true
}

// gotifyURL builds gotify://host[:port]/path/token. Without TLS the
// URL carries disabletls=yes.
func gotifyURL(n config.Notification) (string, bool) {
	gotify := n.Gotify
	if gotify.Token == "" || gotify.Host == "" {
		return "", false
	}
	host := gotify.Host
	if gotify.Port != 0 {
		host = net.JoinHostPort(gotify.Host, strconv.Itoa(gotify.Port))
	}
	path := "/"
	if gotify.Path != "" && gotify.Path != "/" {
		path = "/" + strings.Trim(gotify.Path, "/") + "/"
	}
	serviceURL := url.URL{Scheme: "gotify", Host: host, Path: path + gotify.Token}
	if !gotify.UseTLS {
		serviceURL.RawQuery = url.Values{"disabletls": {"yes"}}.Encode()
	}
	return serviceURL.String(), true
}

// emailURL builds an smtp:// URL. The sender defaults to the SMTP
// user; the port defaults to 465 with TLS and 25 without.
func emailURL(n config.Notification) (string, bool) {
	email := n.Email
	if email.SMTPHost == "" || email.SMTPUser == "" || email.SMTPPass == "" || len(email.ToAddr) == 0 {
		return "", false
	}
	port := email.SMTPPort
	if port == 0 {
		port = 25
		if email.UseTLS {
			port = 465
		}
	}
	from := email.FromAddr
	if from == "" {
		from = email.SMTPUser
	}
	encryption := "None"
	if email.UseTLS {
		encryption = "Auto"
	}
	query := url.Values{
		"from":       {from},
		"to":         {strings.Join(email.ToAddr, ",")},
		"encryption": {encryption},
	}
	serviceURL := url.URL{
		Scheme:   "smtp",
		User:     url.UserPassword(email.SMTPUser, email.SMTPPass),
		Host:     net.JoinHostPort(email.SMTPHost, strconv.Itoa(port)),
		Path:     "/",
		RawQuery: query.Encode(),
	}
	return serviceURL.String(), true
}

// telegramURL builds telegram://<bot token>@telegram?chats=<chat>.
func telegramURL(n config.Notification) (string, bool) {
	telegram := n.Telegram
	if telegram.BotToken == "" || telegram.ChatID == "" {
		return "", false
	}
	botID, secret, ok := strings.Cut(telegram.BotToken, ":")
	if !ok {
		return "", false
	}
	serviceURL := url.URL{
		Scheme:   "telegram",
		User:     url.UserPassword(botID, secret),
		Host:     "telegram",
		RawQuery: url.Values{"chats": {telegram.ChatID}}.Encode(),
	}
	return serviceURL.String(), true
}

// slackURL prefers the webhook tokens; a bot token also needs a
// channel id.
func slackURL(n config.Notification) (string, bool) {
	slack := n.Slack
	if slack.TokenA != "" {
		if slack.TokenB == "" || slack.TokenC == "" {
			return "", false
		}
		token := slack.TokenA + "-" + slack.TokenB + "-" + slack.TokenC
		return (&url.URL{Scheme: "slack", User: url.UserPassword("hook", token), Host: "webhook"}).String(), true
	}
	if slack.OAuthToken == "" || slack.Channel == "" {
		return "", false
	}
	prefix, rest, ok := strings.Cut(slack.OAuthToken, "-")
	if !ok {
		return "", false
	}
	return (&url.URL{Scheme: "slack", User: url.UserPassword(prefix, rest), Host: slack.Channel}).String(), true
}

// Endpoints are the webhook services' base URLs. Zero fields use the
// public services.
type Endpoints struct {
	PushPlus   string
	Bark       string
	DingTalk   string
	PushMe     string
	PushDeer   string
	ServerChan string
	WeComBot   string
}

// DefaultEndpoints are the public services.
var DefaultEndpoints = Endpoints{
	PushPlus:   "https://www.pushplus.plus/send",
	Bark:       "https://api.day.app",
	DingTalk:   "https://oapi.dingtalk.com/robot/send",
	PushMe:     "https://push.i-i.me/",
	PushDeer:   "https://api2.pushdeer.com",
	ServerChan: "https://sctapi.ftqq.com",
	WeComBot:   "https://qyapi.weixin.qq.com/cgi-bin/webhook/send",
}

func (e Endpoints) withDefaults() Endpoints {
	fill := func(value *string, fallback string) {
		if *value == "" {
			*value = fallback
		}
	}
	fill(&e.PushPlus, DefaultEndpoints.PushPlus)
	fill(&e.Bark, DefaultEndpoints.Bark)
	fill(&e.DingTalk, DefaultEndpoints.DingTalk)
	fill(&e.PushMe, DefaultEndpoints.PushMe)
	fill(&e.PushDeer, DefaultEndpoints.PushDeer)
	fill(&e.ServerChan, DefaultEndpoints.ServerChan)
	fill(&e.WeComBot, DefaultEndpoints.WeComBot)
	return e
}

func pushPlusHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	token := n.PushPlus.Token
	if token == "" {
		return webhook{}, false
	}
	return webhook{url: endpoints.PushPlus, body: func(content Content) any {
		return map[string]string{"token": token, "title": content.Title, "content": content.Body, "template": "txt"}
	}}, true
}

// barkHook accepts either a bare device key or server/key for a
// self-hosted server.
func barkHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	token := strings.TrimRight(n.Bark.Token, "/")
	if token == "" {
		return webhook{}, false
	}
	server, key := endpoints.Bark, token
	if index := strings.LastIndex(token, "/"); index >= 0 {
		server, key = token[:index], token[index+1:]
		if !strings.Contains(server, "://") {
			server = "https://" + server
		}
	}
	if key == "" {
		return webhook{}, false
	}
	level := n.Bark.Level
	return webhook{url: strings.TrimRight(server, "/") + "/push", body: func(content Content) any {
		payload := map[string]string{"device_key": key, "title": content.Title, "body": content.Body}
		if level != "" {
			payload["level"] = level
		}
		return payload
	}}, true
}

func dingTalkHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	token := n.DingTalk.Token
	if token == "" {
		return webhook{}, false
	}
	return webhook{url: endpoints.DingTalk + "?" + url.Values{"access_token": {token}}.Encode(), body: textMessage}, true
}

func weComBotHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	key := n.WeComBot.BotKey
	if key == "" {
		return webhook{}, false
	}
	return webhook{url: endpoints.WeComBot + "?" + url.Values{"key": {key}}.Encode(), body: textMessage}, true
}

// textMessage is the robot message body shared by DingTalk and WeCom.
func textMessage(content Content) any {
	return map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": content.Text()},
	}
}

func pushMeHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	token := n.PushMe.Token
	if token == "" {
		return webhook{}, false
	}
	return webhook{url: endpoints.PushMe, body: func(content Content) any {
		return url.Values{"push_key": {token}, "title": {content.Title}, "content": {content.Body}, "type": {"text"}}
	}}, true
}

// pushDeerHook posts to the public server unless a host is set.
func pushDeerHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	pushDeer := n.PushDeer
	if pushDeer.PushKey == "" {
		return webhook{}, false
	}
	base := endpoints.PushDeer
	if pushDeer.Host != "" {
		scheme := "http"
		if pushDeer.UseTLS {
			scheme = "https"
		}
		host := pushDeer.Host
		if pushDeer.Port != 0 {
			host = net.JoinHostPort(pushDeer.Host, strconv.Itoa(pushDeer.Port))
		}
		base = scheme + "://" + host
	}
	key := pushDeer.PushKey
	return webhook{url: strings.TrimRight(base, "/") + "/message/push", body: func(content Content) any {
		return url.Values{"pushkey": {key}, "text": {content.Text()}, "type": {"text"}}
	}}, true
}

// ServerChan³ keys carry the account number that picks the host.
var serverChan3Key = regexp.MustCompile(`^sctp(\d+)t`)

func serverChanHook(n config.Notification, endpoints Endpoints) (webhook, bool) {
	key := n.ServerChan.Token
	if key == "" {
		return webhook{}, false
	}
	target := endpoints.ServerChan + "/" + url.PathEscape(key) + ".send"
	if match := serverChan3Key.FindStringSubmatch(key); match != nil {
		target = "https://" + match[1] + ".push.ft07.com/send/" + url.PathEscape(key) + ".send"
	}
	return webhook{url: target, body: func(content Content) any {
		return url.Values{"title": {content.Title}, "desp": {content.Body}}
	}}, true
}
