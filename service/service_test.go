// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/gateway"
	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
)

type fixture struct {
	store  *config.Store
	client *allcpp.Client
	clock  *clock.FakeClock
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := config.Open(config.Options{
		Path:      filepath.Join(t.TempDir(), "config", "config.yaml"),
		MachineID: "service-test-machine",
	})
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	fake := clock.Fake(time.UnixMilli(1_700_000_000_000))
	client, err := allcpp.NewClient(allcpp.ClientConfig{
		Gateway:   gateway.New(gateway.Config{CookieDomain: "127.0.0.1"}),
		Endpoints: allcpp.Endpoints{User: server.URL, Web: server.URL},
		Profile:   allcpp.Profile{UserAgent: "test", SignKey: "k"},
		Clock:     fake,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &fixture{store: store, client: client, clock: fake}
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

func TestLoginStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login/normal", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("password") {
		case "right":
			io.WriteString(w, `{"token":"tok-9"}`)
		case "down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			io.WriteString(w, `{"message":"账号或密码错误"}`)
		}
	})
	f := newFixture(t, mux)
	users := NewUserService(f.store, f.client, nil)
	ctx := context.Background()

	if status := users.Login(ctx); status != LoginMissingAccount {
		t.Errorf("no account: %v", status)
	}
	f.store.SetCredentials("13800138000", "")
	if status := users.Login(ctx); status != LoginMissingPassword {
		t.Errorf("no password: %v", status)
	}
	f.store.SetCredentials("13800138000", "wrong")
	if status := users.Login(ctx); status != LoginError {
		t.Errorf("wrong password: %v", status)
	}
	f.store.SetCredentials("13800138000", "down")
	if status := users.Login(ctx); status != LoginFailed {
		t.Errorf("platform down: %v", status)
	}
	f.store.SetCredentials("13800138000", "right")
	if status := users.Login(ctx); status != LoginSuccess {
		t.Errorf("right password: %v", status)
	}
	if got := f.store.Snapshot().Account.TokenValue(); got != "tok-9" {
		t.Errorf("stored token = %q", got)
	}
}

func TestCheckToken(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, _ := r.Cookie("token")
		if cookie == nil || cookie.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		jsonHandler(`[]`)(w, r)
	}))
	users := NewUserService(f.store, f.client, nil)
	ctx := context.Background()

	if users.CheckToken(ctx) {
		t.Error("CheckToken without a token = true")
	}
	f.store.SetToken("bad")
	if users.CheckToken(ctx) {
		t.Error("CheckToken(bad) = true")
	}
	f.store.SetToken("good")
	if !users.CheckToken(ctx) {
		t.Error("CheckToken(good) = false")
	}
}

func TestBuyerListAndSelect(t *testing.T) {
	f := newFixture(t, jsonHandler(`[{"id":1,"realname":"甲","idcard":"x","mobile":"13800138000","validType":0},{"id":2,"realname":"乙","idcard":"y","mobile":"13900139000","validType":1}]`))
	buyers := NewBuyerService(f.store, f.client, nil)

	status, list := buyers.List(context.Background())
	if status != BuyerSuccess || len(list) != 2 {
		t.Fatalf("List = %v, %d buyers", status, len(list))
	}
	selected, err := SelectIDs(list, []int{2, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := buyers.Select(selected); err != nil {
		t.Fatal(err)
	}
	stored := f.store.Snapshot().Buyer
	if stored.Count != len(selected) || stored.Count != 2 || stored.Buyer[0].ID != 2 {
		t.Errorf("stored buyers = %+v", stored)
	}
	if _, err := SelectIDs(list, []int{3}); err == nil {
		t.Error("SelectIDs accepted an unknown id")
	}
}

func TestBuyerListStatuses(t *testing.T) {
	empty := newFixture(t, jsonHandler(`[]`))
	if status, _ := NewBuyerService(empty.store, empty.client, nil).List(context.Background()); status != BuyerMissing {
		t.Errorf("empty list: %v", status)
	}
	broken := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	if status, _ := NewBuyerService(broken.store, broken.client, nil).List(context.Background()); status != BuyerError {
		t.Errorf("server error: %v", status)
	}
}

const eventBody = `{"ticketMain":{"eventMainId":3001,"eventName":"CP30"},"ticketTypeList":[
	{"id":42,"ticketName":"普通票","square":"DAY1","ticketPrice":7500,"purchaseNum":2,"remainderNum":0,"lockNum":5,"realnameAuth":true,"sellStartTime":1699990000000,"sellEndTime":1800000000000},
	{"id":43,"ticketName":"VIP","square":"DAY1","ticketPrice":30000,"purchaseNum":1,"remainderNum":4,"lockNum":0,"realnameAuth":false,"sellStartTime":1699990000000,"sellEndTime":1600000000000}
]}`

func selectTier(t *testing.T, f *fixture, tierID int) {
	t.Helper()
	if err := f.store.SetProduct(config.TicketMain{ID: 3001}, config.TicketType{ID: tierID}); err != nil {
		t.Fatal(err)
	}
}

func TestCheckTicket(t *testing.T) {
	f := newFixture(t, jsonHandler(eventBody))
	products := NewProductService(f.store, f.client, f.clock, nil)
	ctx := context.Background()

	tests := []struct {
		tier int
		want ProductStatus
	}{
		{42, ProductNoStock},
		{43, ProductSuccess},
		{99, ProductNoStock},
	}
	for _, test := range tests {
		selectTier(t, f, test.tier)
		if got := products.CheckTicket(ctx); got != test.want {
			t.Errorf("CheckTicket(tier %d) = %v, want %v", test.tier, got, test.want)
		}
	}
}

func TestCheckInactive(t *testing.T) {
	f := newFixture(t, jsonHandler(eventBody))
	products := NewProductService(f.store, f.client, f.clock, nil)
	ctx := context.Background()

	tests := []struct {
		tier int
		want ProductStatus
	}{
		{42, ProductSuccess},
		{43, ProductInactive},
		{99, ProductInactive},
	}
	for _, test := range tests {
		selectTier(t, f, test.tier)
		if got := products.CheckInactive(ctx); got != test.want {
			t.Errorf("CheckInactive(tier %d) = %v, want %v", test.tier, got, test.want)
		}
	}
}

func TestProductErrors(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	products := NewProductService(f.store, f.client, f.clock, nil)
	selectTier(t, f, 42)
	if got := products.CheckTicket(context.Background()); got != ProductError {
		t.Errorf("CheckTicket = %v, want error", got)
	}
	if got, _, _ := products.Get(context.Background(), 3001); got != ProductError {
		t.Errorf("Get = %v, want error", got)
	}
}

func TestRefreshAndGet(t *testing.T) {
	f := newFixture(t, jsonHandler(eventBody))
	products := NewProductService(f.store, f.client, f.clock, nil)
	ctx := context.Background()

	status, main, tiers := products.Get(ctx, 3001)
	if status != ProductSuccess || main.Name != "CP30" || len(tiers) != 2 || tiers[0].Name != "普通票" || tiers[0].Price != 7500 {
		t.Fatalf("Get = %v %+v %+v", status, main, tiers)
	}
	if err := products.Select(main, config.TicketType{ID: 42, Name: "普通票"}); err != nil {
		t.Fatal(err)
	}
	if status := products.Refresh(ctx); status != ProductSuccess {
		t.Fatalf("Refresh = %v", status)
	}
	tier := f.store.Snapshot().Product.TicketType
	if tier.SellStartTime != 1699990000000 || tier.SellEndTime != 1800000000000 || !tier.RealnameAuth {
		t.Errorf("refreshed tier = %+v", tier)
	}
}

func TestOrderCreate(t *testing.T) {
	queries := make(chan string, 1)
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query().Get("purchaserIds") + "|" + r.URL.Query().Get("count")
		jsonHandler(`{"isSuccess":false,"message":"相同证件限购一张！"}`)(w, r)
	}))
	f.store.SetBuyers([]config.Buyer{{ID: 5}, {ID: 6}})
	selectTier(t, f, 42)

	orders := NewOrderService(f.store, f.client, nil, nil)
	result := orders.Create(context.Background())
	if got := <-queries; got != "5,6|2" {
		t.Errorf("purchaserIds|count = %q", got)
	}
	if result.Category != CategoryDuplicate || result.Status != OrderDuplicated {
		t.Errorf("result = %+v", result)
	}
}

func TestOrderProbeUsesGivenTier(t *testing.T) {
	tiers := make(chan string, 1)
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tiers <- r.URL.Query().Get("ticketTypeId")
		jsonHandler(`{"isSuccess":false,"message":"请求过于频繁，请稍后再试"}`)(w, r)
	}))
	f.store.SetBuyers([]config.Buyer{{ID: 5}})
	selectTier(t, f, 42)

	result := NewOrderService(f.store, f.client, nil, nil).Probe(context.Background(), 4321)
	if got := <-tiers; got != "4321" {
		t.Errorf("ticketTypeId = %q, want 4321", got)
	}
	if result.Category != CategoryRateLimit || result.Status != OrderRequestRisked {
		t.Errorf("result = %+v", result)
	}
}
