// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package dglab

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/testutil"
	"github.com/ticketzako/cppticketer/notify"
)

// syncBuffer is written by Connect and read by the test.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

func newTestBridge(t *testing.T, out *syncBuffer) *Bridge {
	t.Helper()
	// Connection goroutines may log after the test returns, so the
	// logger does not write through t.
	bridge := New(Config{
		Addr:    "127.0.0.1:0",
		Out:     out,
		LocalIP: func(context.Context) string { return "127.0.0.1" },
		Logger:  (&testutil.LogBuffer{}).Logger(),
	})
	t.Cleanup(func() { bridge.Stop() })
	return bridge
}

// app is a fake DG-Lab app.
type app struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dialApp(t *testing.T, bridge *Bridge) *app {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+bridge.Addr()+"/"+bridge.TerminalID(), nil)
	if err != nil {
		t.Fatalf("dialing bridge: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	a := &app{t: t, conn: conn}
	hello := a.read()
	if hello.Type != TypeBind || hello.Message != "targetId" || hello.ClientID == "" {
		t.Fatalf("first frame = %+v, want an id assignment", hello)
	}
	a.id = hello.ClientID
	return a
}

func (a *app) read() Frame {
	a.t.Helper()
	a.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame Frame
	if err := a.conn.ReadJSON(&frame); err != nil {
		a.t.Fatalf("reading frame: %v", err)
	}
	return frame
}

func (a *app) bind(terminalID string) Frame {
	a.t.Helper()
	if err := a.conn.WriteJSON(Frame{Type: TypeBind, ClientID: terminalID, TargetID: a.id, Message: "DGLAB"}); err != nil {
		a.t.Fatalf("sending bind: %v", err)
	}
	return a.read()
}

func waitFor(t *testing.T, condition func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPairAndSend(t *testing.T) {
	out := &syncBuffer{}
	bridge := newTestBridge(t, out)
	ctx := context.Background()

	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	terminalID := bridge.TerminalID()
	if err := bridge.Start(ctx); err != nil || bridge.TerminalID() != terminalID {
		t.Fatalf("second Start changed the bridge: %v", err)
	}
	if bridge.Status() {
		t.Fatal("Status true before any app bound")
	}

	connected := make(chan error, 1)
	go func() { connected <- bridge.Connect(ctx) }()

	a := dialApp(t, bridge)
	reply := a.bind(terminalID)
	if reply.Type != TypeBind || reply.Message != CodeOK || reply.ClientID != terminalID || reply.TargetID != a.id {
		t.Fatalf("bind reply = %+v", reply)
	}
	if err := testutil.RequireReceive(t, connected, 5*time.Second, "waiting for Connect"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !bridge.Status() {
		t.Fatal("Status false after bind")
	}

	port := strings.TrimPrefix(bridge.Addr(), "127.0.0.1:")
	wantURL := "https://www.dungeon-lab.com/app-download.php#DGLAB-SOCKET#ws://127.0.0.1:" + port + "/" + terminalID
	if !strings.Contains(out.String(), wantURL) {
		t.Errorf("pairing output does not contain %q:\n%s", wantURL, out.String())
	}
	if !strings.Contains(out.String(), a.id) {
		t.Error("bind confirmation does not name the app")
	}

	// Already bound: Connect returns at once.
	if err := bridge.Connect(ctx); err != nil {
		t.Fatalf("Connect while bound: %v", err)
	}

	if err := bridge.Send(ctx, []string{"未知", "呼吸"}, 20, ChannelB, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if frame := a.read(); frame.Message != "clear-2" {
		t.Errorf("first command = %q, want clear-2", frame.Message)
	}
	strength := a.read()
	if strength.Type != TypeMsg || strength.Message != "strength-2+2+20" || strength.TargetID != a.id {
		t.Errorf("strength frame = %+v", strength)
	}
	pulse := a.read()
	frames, _ := DefaultPulseTable().Frames("呼吸")
	if !strings.HasPrefix(pulse.Message, "pulse-B:[\""+frames[0]+"\"") {
		t.Errorf("pulse frame = %q", pulse.Message)
	}
}

func TestAppDisconnectUnbinds(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	ctx := context.Background()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a := dialApp(t, bridge)
	a.bind(bridge.TerminalID())
	waitFor(t, bridge.Status, "bind")

	a.conn.Close()
	waitFor(t, func() bool { return !bridge.Status() }, "unbind")

	if err := bridge.Send(ctx, []string{"呼吸"}, 10, ChannelA, 0); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after disconnect = %v, want ErrNotConnected", err)
	}

	// A new app can bind to the same terminal.
	second := dialApp(t, bridge)
	if reply := second.bind(bridge.TerminalID()); reply.Message != CodeOK {
		t.Errorf("rebind reply = %+v", reply)
	}
}

func TestBindRejections(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	first := dialApp(t, bridge)
	if reply := first.bind("wrong-terminal"); reply.Message != CodeUnknownPeer {
		t.Errorf("wrong terminal reply = %+v", reply)
	}
	first.bind(bridge.TerminalID())

	second := dialApp(t, bridge)
	if reply := second.bind(bridge.TerminalID()); reply.Message != CodeBound {
		t.Errorf("second app reply = %+v, want %s", reply, CodeBound)
	}
}

func TestWrongPathIsNotFound(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, response, err := websocket.DefaultDialer.Dial("ws://"+bridge.Addr()+"/not-the-terminal", nil)
	if err == nil {
		t.Fatal("dial to a wrong path succeeded")
	}
	if response == nil || response.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", response)
	}
}

func TestLifecycleIdempotent(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	ctx := context.Background()

	if err := bridge.Connect(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Connect before Start = %v, want ErrNotStarted", err)
	}
	if err := bridge.Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
	if err := bridge.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := bridge.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := bridge.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	if bridge.Status() || bridge.Addr() != "" {
		t.Error("bridge still reports running after Stop")
	}
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestConnectHonorsContext(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := bridge.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect = %v, want deadline exceeded", err)
	}
}

func TestStopReleasesConnect(t *testing.T) {
	out := &syncBuffer{}
	bridge := newTestBridge(t, out)
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	result := make(chan error, 1)
	go func() { result <- bridge.Connect(context.Background()) }()
	waitFor(t, func() bool { return strings.Contains(out.String(), "等待 App 连接中") }, "pairing prompt")

	if err := bridge.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-result:
		if !errors.Is(err, ErrNotStarted) {
			t.Errorf("Connect = %v, want ErrNotStarted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect still blocked after Stop")
	}
}

func TestNotifyUsesSettings(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	ctx := context.Background()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a := dialApp(t, bridge)
	a.bind(bridge.TerminalID())
	waitFor(t, bridge.Status, "bind")

	n := config.DefaultNotification()
	n.DGLab = config.DGLabChannel{Pulses: []string{"连击"}, Strength: 35, Channel: "a", Interval: 0}
	if err := bridge.Notify(ctx, notify.Content{Title: notify.Title}, n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	a.read()
	if frame := a.read(); frame.Message != "strength-1+2+35" {
		t.Errorf("strength frame = %q", frame.Message)
	}

	n.DGLab.Channel = "C"
	if err := bridge.Notify(ctx, notify.Content{}, n); err == nil {
		t.Error("Notify accepted channel C")
	}
}

func TestSendValidation(t *testing.T) {
	bridge := newTestBridge(t, &syncBuffer{})
	ctx := context.Background()
	if err := bridge.Send(ctx, nil, 10, ChannelA, 0); err == nil {
		t.Error("Send accepted no pulses")
	}
	if err := bridge.Send(ctx, []string{"呼吸"}, 201, ChannelA, 0); err == nil {
		t.Error("Send accepted strength 201")
	}
	if err := bridge.Send(ctx, []string{"呼吸"}, 10, ChannelA, 0); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send on a stopped bridge = %v", err)
	}
}
