// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package dglab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mdp/qrterminal/v3"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/netutil"
	"github.com/ticketzako/cppticketer/notify"
)

const (
	// DefaultAddr is where the app expects the relay.
	DefaultAddr = "0.0.0.0:5678"

	// ReadyTimeout bounds Connect's wait for the server.
	ReadyTimeout = 5 * time.Second

	// HeartbeatInterval is how often the bound app is pinged.
	HeartbeatInterval = 60 * time.Second

	writeTimeout = 10 * time.Second
	readLimit    = 64 << 10

	downloadURL = "https://www.dungeon-lab.com/app-download.php"
)

var (
	// ErrNotStarted is returned by Connect before Start or after Stop.
	ErrNotStarted = errors.New("dglab: bridge is not running")

	// ErrNotConnected is returned by Send when no app is bound.
	ErrNotConnected = errors.New("dglab: no app bound")
)

// PairingURL is the QR payload the app scans.
func PairingURL(host string, port int, terminalID string) string {
	return fmt.Sprintf("%s#DGLAB-SOCKET#ws://%s/%s", downloadURL, net.JoinHostPort(host, fmt.Sprint(port)), terminalID)
}

// Config configures a Bridge. Every field is optional.
type Config struct {
	// Addr is the listen address. Default DefaultAddr.
	Addr string

	// Out receives the pairing banner and QR code. Default os.Stdout.
	Out io.Writer

	// LocalIP picks the address printed in the pairing URL. Default
	// netutil.LocalIP.
	LocalIP func(ctx context.Context) string

	// Pulses is the preset table. Default DefaultPulseTable().
	Pulses *PulseTable

	Clock  clock.Clock
	Logger *slog.Logger
}

// Bridge is the relay server and local terminal. It implements
// notify.External.
type Bridge struct {
	addr     string
	out      io.Writer
	localIP  func(ctx context.Context) string
	pulses   *PulseTable
	clock    clock.Clock
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	running    bool
	terminalID string
	listener   net.Listener
	server     *http.Server
	ready      chan struct{}
	done       chan struct{}
	peers      map[string]*peer
	app        *peer
	bound      chan struct{}
}

// peer is one WebSocket connection. Writes are serialized.
type peer struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (p *peer) write(frame Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return p.conn.WriteJSON(frame)
}

// New builds a stopped Bridge.
func New(cfg Config) *Bridge {
	b := &Bridge{
		addr:    cfg.Addr,
		out:     cfg.Out,
		localIP: cfg.LocalIP,
		pulses:  cfg.Pulses,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		upgrader: websocket.Upgrader{
			// The app is not a browser and sends no Origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	if b.addr == "" {
		b.addr = DefaultAddr
	}
	if b.out == nil {
		b.out = os.Stdout
	}
	if b.localIP == nil {
		b.localIP = netutil.LocalIP
	}
	if b.pulses == nil {
		b.pulses = DefaultPulseTable()
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// Method implements notify.External.
func (b *Bridge) Method() string { return config.MethodDGLab }

// Init clears state left by a previous run. It does nothing while the
// bridge is running.
func (b *Bridge) Init(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	b.terminalID = ""
	b.listener = nil
	b.server = nil
	b.peers = nil
	b.app = nil
	return nil
}

// Start listens and serves in the background under a fresh terminal
// id.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	var listenConfig net.ListenConfig
	listener, err := listenConfig.Listen(ctx, "tcp", b.addr)
	if err != nil {
		return fmt.Errorf("dglab: listening on %s: %w", b.addr, err)
	}
	b.running = true
	b.terminalID = uuid.NewString()
	b.listener = listener
	b.server = &http.Server{Handler: b, ReadHeaderTimeout: 10 * time.Second}
	b.ready = make(chan struct{})
	b.done = make(chan struct{})
	b.bound = make(chan struct{})
	b.peers = make(map[string]*peer)
	b.app = nil

	server, ready, done := b.server, b.ready, b.done
	go func() {
		close(ready)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("dglab server stopped", "error", err)
			b.mu.Lock()
			if b.server == server {
				b.running = false
			}
			b.mu.Unlock()
		}
	}()
	go b.heartbeat(done)

	b.logger.Info("dglab server started", "addr", listener.Addr().String(), "terminal", b.terminalID)
	return nil
}

// Addr returns the listening address, or "" when stopped.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ""
	}
	return b.listener.Addr().String()
}

// TerminalID returns the id the app must bind to.
func (b *Bridge) TerminalID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminalID
}

// Connect prints the pairing QR code and waits for the app to bind.
// It returns at once when an app is already bound, and with
// ErrNotStarted when Stop runs first.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return ErrNotStarted
	}
	ready, done, bound, listener, terminalID := b.ready, b.done, b.bound, b.listener, b.terminalID
	alreadyBound := b.app != nil
	b.mu.Unlock()

	select {
	case <-ready:
	case <-done:
		return ErrNotStarted
	case <-b.clock.After(ReadyTimeout):
		return errors.New("dglab: server did not become ready")
	case <-ctx.Done():
		return ctx.Err()
	}
	if alreadyBound {
		b.logger.Info("dglab app already bound")
		return nil
	}

	port := 0
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	host := b.localIP(ctx)
	pairing := PairingURL(host, port, terminalID)

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(b.out, "\n%s\nDGLab 连接\n%s\n\n", rule, rule)
	fmt.Fprintf(b.out, "服务器地址: ws://%s\n\n请用 DG-Lab App 扫描下方二维码以连接\n\n", net.JoinHostPort(host, fmt.Sprint(port)))
	qrterminal.GenerateHalfBlock(pairing, qrterminal.L, b.out)
	fmt.Fprintf(b.out, "\n%s\n等待 App 连接中...\n", pairing)

	select {
	case <-bound:
	case <-done:
		return ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	var appID string
	if b.app != nil {
		appID = b.app.id
	}
	b.mu.Unlock()
	fmt.Fprintf(b.out, "\n已与 App 成功绑定 (ID: %s)\n%s\n\n", appID, rule)
	return nil
}

// Stop closes every connection and the listener.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	close(b.done)
	server := b.server
	peers := b.peers
	b.peers = nil
	b.app = nil
	b.mu.Unlock()

	for _, p := range peers {
		p.conn.Close()
	}
	err := server.Close()
	b.logger.Info("dglab server stopped")
	return err
}

// Status reports whether the server is running with an app bound.
func (b *Bridge) Status() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running && b.app != nil
}

// Send empties channel's queue, sets its strength and plays pulses in
// order, waiting interval between them. Unknown pulse names are
// skipped.
func (b *Bridge) Send(ctx context.Context, pulses []string, strength int, channel Channel, interval time.Duration) error {
	if len(pulses) == 0 {
		return errors.New("dglab: no pulses to send")
	}
	if strength < 0 || strength > 200 {
		return fmt.Errorf("dglab: strength %d outside 0-200", strength)
	}

	b.mu.Lock()
	app, terminalID := b.app, b.terminalID
	running := b.running
	b.mu.Unlock()
	if !running || app == nil {
		return ErrNotConnected
	}

	command := func(message string) error {
		return app.write(Frame{Type: TypeMsg, ClientID: terminalID, TargetID: app.id, Message: message})
	}
	if err := command(clearPulses(channel)); err != nil {
		return fmt.Errorf("dglab: clearing channel: %w", err)
	}
	if err := command(setStrength(channel, strength)); err != nil {
		return fmt.Errorf("dglab: setting strength: %w", err)
	}

	var sent []string
	for index, name := range pulses {
		frames, ok := b.pulses.Extended(name)
		if !ok {
			b.logger.Warn("unknown dglab pulse, skipping", "pulse", name)
			continue
		}
		commands, err := pulseCommands(channel, frames)
		if err != nil {
			return fmt.Errorf("dglab: encoding pulse %q: %w", name, err)
		}
		for _, message := range commands {
			if err := command(message); err != nil {
				return fmt.Errorf("dglab: sending pulse %q: %w", name, err)
			}
		}
		sent = append(sent, name)

		if index < len(pulses)-1 {
			if err := clock.SleepContext(ctx, b.clock, interval); err != nil {
				return err
			}
		}
	}

	if len(sent) == 0 {
		b.logger.Warn("no valid dglab pulse was sent", "pulses", pulses)
		return nil
	}
	b.logger.Info("dglab notification sent", "channel", string(channel), "pulses", sent, "strength", strength)
	return nil
}

// Notify implements notify.External. An unbound bridge is started and
// paired first.
func (b *Bridge) Notify(ctx context.Context, _ notify.Content, n config.Notification) error {
	if !b.Status() {
		if err := b.Start(ctx); err != nil {
			return err
		}
		if err := b.Connect(ctx); err != nil {
			return err
		}
	}
	if !b.Status() {
		return ErrNotConnected
	}
	channel, err := ParseChannel(n.DGLab.Channel)
	if err != nil {
		return err
	}
	interval := time.Duration(n.DGLab.Interval * float64(time.Second))
	return b.Send(ctx, n.DGLab.Pulses, n.DGLab.Strength, channel, interval)
}

// ServeHTTP accepts app connections on /<terminal id>.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	terminalID, running := b.terminalID, b.running
	b.mu.Unlock()
	if !running || strings.Trim(r.URL.Path, "/") != terminalID {
		http.NotFound(w, r)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("dglab upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(readLimit)
	p := &peer{id: uuid.NewString(), conn: conn}

	b.mu.Lock()
	if b.peers == nil {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.peers[p.id] = p
	b.mu.Unlock()
	defer b.drop(p)

	b.logger.Debug("dglab client connected", "remote", r.RemoteAddr, "client", p.id)
	if err := p.write(Frame{Type: TypeBind, ClientID: p.id, Message: assignIDToken}); err != nil {
		b.logger.Warn("dglab client id not delivered", "client", p.id, "error", err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || netutil.IsExpectedCloseError(err) {
				b.logger.Debug("dglab client closed", "client", p.id)
			} else {
				b.logger.Warn("dglab client read failed", "client", p.id, "error", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			p.write(Frame{Type: TypeMsg, ClientID: p.id, Message: CodeBadJSON})
			continue
		}
		b.handle(p, frame)
	}
}

func (b *Bridge) handle(p *peer, frame Frame) {
	switch frame.Type {
	case TypeBind:
		b.bind(p, frame)
	case TypeHeartbeat:
	case TypeBreak:
		b.unbind(p)
	case TypeMsg:
		if feedback, ok := parseFeedback(frame.Message); ok {
			b.logger.Debug("dglab strength feedback",
				"a", feedback.StrengthA, "b", feedback.StrengthB,
				"limit_a", feedback.StrengthLimitA, "limit_b", feedback.StrengthLimitB)
			return
		}
		b.logger.Debug("dglab app message", "message", frame.Message)
	default:
		b.logger.Debug("dglab frame ignored", "type", frame.Type)
	}
}

func (b *Bridge) bind(p *peer, frame Frame) {
	b.mu.Lock()
	if frame.ClientID != b.terminalID || frame.TargetID != p.id {
		b.mu.Unlock()
		p.write(Frame{Type: TypeBind, ClientID: frame.ClientID, TargetID: frame.TargetID, Message: CodeUnknownPeer})
		return
	}
	if b.app != nil && b.app != p {
		b.mu.Unlock()
		p.write(Frame{Type: TypeBind, ClientID: frame.ClientID, TargetID: p.id, Message: CodeBound})
		return
	}
	if b.app == nil {
		b.app = p
		close(b.bound)
	}
	terminalID := b.terminalID
	b.mu.Unlock()

	b.logger.Info("dglab app bound", "app", p.id)
	if err := p.write(Frame{Type: TypeBind, ClientID: terminalID, TargetID: p.id, Message: CodeOK}); err != nil {
		b.logger.Warn("dglab bind reply failed", "app", p.id, "error", err)
	}
}

// unbind forgets p as the app and arms a new bind wait.
func (b *Bridge) unbind(p *peer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.app != p {
		return
	}
	b.app = nil
	b.bound = make(chan struct{})
	if b.running {
		b.logger.Warn("dglab app disconnected, waiting for it to bind again")
	}
}

func (b *Bridge) drop(p *peer) {
	b.unbind(p)
	b.mu.Lock()
	if b.peers != nil {
		delete(b.peers, p.id)
	}
	b.mu.Unlock()
	p.conn.Close()
}

func (b *Bridge) heartbeat(done <-chan struct{}) {
	ticker := b.clock.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			b.mu.Lock()
			app, terminalID := b.app, b.terminalID
			b.mu.Unlock()
			if app == nil {
				continue
			}
			if err := app.write(Frame{Type: TypeHeartbeat, ClientID: terminalID, TargetID: app.id, Message: CodeOK}); err != nil {
				b.logger.Warn("dglab heartbeat failed", "error", err)
			}
		}
	}
}

var _ notify.External = (*Bridge)(nil)
