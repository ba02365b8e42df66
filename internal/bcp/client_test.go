package bcp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/fetch"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	f := fetch.New(fetch.Config{
		CacheDir:       t.TempDir(),
		CacheTTL:       time.Hour,
		MaxContentSize: 10 * 1024 * 1024,
		Timeout:        5 * time.Second,
	}, nil)
	cfg := Config{APIBase: srv.URL, GameType: 1}
	return NewClient(f, cfg, nil), srv
}

func TestDiscoverEventsWrappedResponse(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"ev1","name":"GW Open","startDate":"2025-01-10","playerCount":64}]}`)
	})
	defer srv.Close()

	events, err := client.DiscoverEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("DiscoverEvents: %v", err)
	}
	if len(events) != 1 || events[0].Name != "GW Open" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDiscoverEventsPlainArrayResponse(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"ev2","name":"LVO"}]`)
	})
	defer srv.Close()

	events, err := client.DiscoverEvents(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("DiscoverEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev2" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestFetchPlayersActiveWrapper(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"active":[{"id":"p1","user":{"firstName":"Anne","lastName":"Smith"},"faction":{"name":"Ultramarines"}}],"deleted":[]}`)
	})
	defer srv.Close()

	players, err := client.FetchPlayers(context.Background(), "ev1")
	if err != nil {
		t.Fatalf("FetchPlayers: %v", err)
	}
	if len(players) != 1 || players[0].FullName() != "Anne Smith" {
		t.Fatalf("unexpected players: %+v", players)
	}
	if players[0].FactionName() != "Ultramarines" {
		t.Fatalf("expected faction Ultramarines, got %q", players[0].FactionName())
	}
}

func TestFetchPlayersUnparseableReturnsEmpty(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})
	defer srv.Close()

	players, err := client.FetchPlayers(context.Background(), "ev1")
	if err != nil {
		t.Fatalf("expected no error for unparseable body, got %v", err)
	}
	if players != nil {
		t.Fatalf("expected nil players, got %+v", players)
	}
}

func TestComputeStandingsRanksByWinsThenBattlePoints(t *testing.T) {
	client := &Client{}

	win, loss, draw := 2, 0, 1
	pts10, pts5, pts8 := GamePoints(10), GamePoints(5), GamePoints(8)

	pairings := []Pairing{
		{
			Player1: &PairingPlayer{ID: "a", FirstName: "Alice"},
			Player2: &PairingPlayer{ID: "b", FirstName: "Bob"},
			MetaData: &PairingMeta{
				P1GameResult: &win, P1GamePoints: &pts10,
				P2GameResult: &loss, P2GamePoints: &pts5,
			},
		},
		{
			Player1: &PairingPlayer{ID: "a", FirstName: "Alice"},
			Player2: &PairingPlayer{ID: "c", FirstName: "Cara"},
			MetaData: &PairingMeta{
				P1GameResult: &draw, P1GamePoints: &pts8,
				P2GameResult: &draw, P2GamePoints: &pts8,
			},
		},
	}

	standings := client.ComputeStandings(pairings, nil)
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].PlayerName != "Alice" || standings[0].Placing != 1 {
		t.Fatalf("expected Alice in first place, got %+v", standings[0])
	}
	if standings[0].Wins != 1 || standings[0].Draws != 1 {
		t.Fatalf("unexpected record for Alice: %+v", standings[0])
	}
}

func TestFetchArmyListReturnsNilOn404(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	client.cfg.ListhammerBase = srv.URL
	list, err := client.FetchArmyList(context.Background(), "ev1", "p1")
	if err != nil {
		t.Fatalf("expected nil error on 404, got %v", err)
	}
	if list != nil {
		t.Fatalf("expected nil list on 404, got %+v", list)
	}
}
