// Package bcp implements the client for the Best Coast Pairings v1 API (the
// source platform for Warhammer 40k tournament data), along with the
// free-form army-list parser and chapter detector used to interpret the
// text that comes back from it.
//
// All source-platform specifics live in this package so an endpoint or
// response-shape change is easy to localise and fix.
package bcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/fetch"
)

// oauthBase is the BCP OAuth API base (API URL with /v1 stripped).
const oauthBase = "https://newprod-api.bestcoastpairings.com"

// oauthRedirectURI is the redirect_uri registered with BCP's OAuth endpoint.
const oauthRedirectURI = "https://www.bestcoastpairings.com/login"

// Authenticate runs the BCP OAuth login dance with the given email and
// password and returns an access token. The flow is two steps: an
// authorize request using HTTP basic auth that returns an authorization
// code, then a token exchange using that code.
func Authenticate(ctx context.Context, client *http.Client, email, password string) (string, error) {
	authorizeURL := fmt.Sprintf("%s/oauth/authorize?response_type=code&redirect_uri=%s", oauthBase, oauthRedirectURI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorizeURL, nil)
	if err != nil {
		return "", fmt.Errorf("bcp: building authorize request: %w", err)
	}
	req.SetBasicAuth(email, password)
	req.Header.Set("client-id", "web-app")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("bcp: authorize request failed: %w", err)
	}
	defer resp.Body.Close()

	var authBody struct {
		AuthorizationCode string `json:"authorizationCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authBody); err != nil {
		return "", fmt.Errorf("bcp: parsing authorize response: %w", err)
	}
	if authBody.AuthorizationCode == "" {
		return "", fmt.Errorf("bcp: no authorizationCode in authorize response")
	}

	tokenBody, err := json.Marshal(map[string]string{
		"redirect_uri": oauthRedirectURI,
		"code":         authBody.AuthorizationCode,
		"grant_type":   "authorization_code",
	})
	if err != nil {
		return "", fmt.Errorf("bcp: marshaling token request: %w", err)
	}

	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthBase+"/oauth/token", strings.NewReader(string(tokenBody)))
	if err != nil {
		return "", fmt.Errorf("bcp: building token request: %w", err)
	}
	tokenReq.Header.Set("client-id", "web-app")
	tokenReq.Header.Set("Content-Type", "application/json")

	tokenResp, err := client.Do(tokenReq)
	if err != nil {
		return "", fmt.Errorf("bcp: token exchange failed: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokens); err != nil {
		return "", fmt.Errorf("bcp: parsing token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("bcp: no accessToken in token response")
	}
	return tokens.AccessToken, nil
}

// Event is a tournament listed by the events endpoint.
type Event struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Venue         string `json:"venue"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	PlayerCount   int    `json:"playerCount"`
	RoundCount    int    `json:"roundCount"`
	GameType      int    `json:"gameType"`
	Ended         bool   `json:"ended"`
	TeamEvent     bool   `json:"teamEvent"`
	HidePlacings  bool   `json:"hidePlacings"`
}

// ParsedStartDate parses StartDate, tolerating both a bare date and an RFC
//3339 timestamp.
func (e Event) ParsedStartDate() (time.Time, bool) {
	if len(e.StartDate) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", e.StartDate[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LocationString joins venue/city/state/country into one display string.
func (e Event) LocationString() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.Venue, e.City, e.State, e.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// URL is the event's page on the source platform.
func (e Event) URL() string {
	return fmt.Sprintf("https://www.bestcoastpairings.com/event/%s", e.ID)
}

// ShouldSkip reports whether this event carries no usable standings.
func (e Event) ShouldSkip() bool {
	return e.TeamEvent || e.HidePlacings
}

type eventListResponse struct {
	Data []Event `json:"data"`
}

// Player is one player-event record from the players endpoint.
type Player struct {
	ID       string `json:"id"`
	User     *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user"`
	Faction *struct {
		Name string `json:"name"`
	} `json:"faction"`
	ListID   string `json:"listId"`
	Dropped  bool   `json:"dropped"`
	ArmyName string `json:"armyName"`
}

// FullName joins the nested user's first and last name.
func (p Player) FullName() string {
	if p.User == nil {
		return ""
	}
	return strings.TrimSpace(p.User.FirstName + " " + p.User.LastName)
}

// FactionName prefers the nested faction object, falling back to the
// direct army-name field some events populate instead.
func (p Player) FactionName() string {
	if p.Faction != nil && p.Faction.Name != "" {
		return p.Faction.Name
	}
	return p.ArmyName
}

type playersResponse struct {
	Active  []Player `json:"active"`
	Deleted []Player `json:"deleted"`
}

// PairingPlayer is one side of a pairing record.
type PairingPlayer struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	ArmyName         string `json:"armyName"`
	ArmyListObjectID string `json:"armyListObjectId"`
}

// FullName joins first and last name.
func (p PairingPlayer) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// GamePoints accepts the source platform's inconsistent encoding of battle
// points as either a JSON number or a numeric string.
type GamePoints float64

// UnmarshalJSON accepts both `12` and `"12"`.
func (g *GamePoints) UnmarshalJSON(data []byte) error {
	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*g = GamePoints(asNumber)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("bcp: game points neither number nor string: %s", data)
	}
	if asString == "" {
		*g = 0
		return nil
	}
	var parsed float64
	if _, err := fmt.Sscanf(asString, "%g", &parsed); err != nil {
		return fmt.Errorf("bcp: parsing game points %q: %w", asString, err)
	}
	*g = GamePoints(parsed)
	return nil
}

// PairingMeta carries the numeric result codes for each side of a pairing:
// 2=win, 1=draw, 0=loss.
type PairingMeta struct {
	P1GameResult *int        `json:"p1-gameResult"`
	P1GamePoints *GamePoints `json:"p1-gamePoints"`
	P2GameResult *int        `json:"p2-gameResult"`
	P2GamePoints *GamePoints `json:"p2-gamePoints"`
}

// Pairing is one round's game between two players.
type Pairing struct {
	Player1  *PairingPlayer `json:"player1"`
	Player2  *PairingPlayer `json:"player2"`
	MetaData *PairingMeta   `json:"metaData"`
	Round    int            `json:"round"`
}

type pairingListResponse struct {
	Data []Pairing `json:"data"`
}

// Standing is one player's computed final placement at an event.
type Standing struct {
	Placing            int
	PlayerName         string
	Faction            string
	Wins               int
	Losses             int
	Draws              int
	TotalBattlePoints  int
	PlayerID           string
	ArmyListObjectID   string
}

// Config configures a Client.
type Config struct {
	APIBase        string
	ListhammerBase string
	GameType       int
	AuthToken      string
}

// DefaultConfig targets the production BCP v1 API for Warhammer 40k
// (gameType 1), mirroring army lists from Listhammer.
func DefaultConfig() Config {
	return Config{
		APIBase:        "https://newprod-api.bestcoastpairings.com/v1",
		ListhammerBase: "https://listhammer.info",
		GameType:       1,
	}
}

// Client talks to the BCP v1 API through a caching Fetcher.
type Client struct {
	fetcher *fetch.Fetcher
	cfg     Config
	logger  *zap.SugaredLogger
}

// NewClient builds a Client.
func NewClient(fetcher *fetch.Fetcher, cfg Config, logger *zap.SugaredLogger) *Client {
	cfg.APIBase = strings.TrimSuffix(cfg.APIBase, "/")
	cfg.ListhammerBase = strings.TrimSuffix(cfg.ListhammerBase, "/")
	if cfg.ListhammerBase == "" {
		cfg.ListhammerBase = "https://listhammer.info"
	}
	return &Client{fetcher: fetcher, cfg: cfg, logger: logger}
}

// DiscoverEvents lists events whose start date falls within [from, to].
func (c *Client) DiscoverEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	url := fmt.Sprintf("%s/events?startDate=%s&endDate=%s&gameType=%d&limit=100",
		c.cfg.APIBase, from.Format("2006-01-02"), to.Format("2006-01-02"), c.cfg.GameType)

	result, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("bcp: discovering events: %w", err)
	}
	body, err := c.fetcher.ReadCachedBytes(result)
	if err != nil {
		return nil, err
	}

	var wrapped eventListResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Data) > 0 {
		return wrapped.Data, nil
	}
	var plain []Event
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain, nil
	}
	return nil, fmt.Errorf("bcp: could not parse events response")
}

// FetchPlayers lists active players registered for an event.
func (c *Client) FetchPlayers(ctx context.Context, eventID string) ([]Player, error) {
	url := fmt.Sprintf("%s/events/%s/players?limit=500", c.cfg.APIBase, eventID)
	result, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("bcp: fetching players for %s: %w", eventID, err)
	}
	body, err := c.fetcher.ReadCachedBytes(result)
	if err != nil {
		return nil, err
	}

	var wrapped playersResponse
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return wrapped.Active, nil
	}
	var plain []Player
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain, nil
	}
	if c.logger != nil {
		c.logger.Warnw("bcp: could not parse players response", "event_id", eventID)
	}
	return nil, nil
}

// FetchPairings lists every round's pairings for an event.
func (c *Client) FetchPairings(ctx context.Context, eventID string) ([]Pairing, error) {
	url := fmt.Sprintf("%s/pairings?eventId=%s&pairingType=Pairing&expand[]=player1&expand[]=player2&limit=500", c.cfg.APIBase, eventID)
	result, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("bcp: fetching pairings for %s: %w", eventID, err)
	}
	body, err := c.fetcher.ReadCachedBytes(result)
	if err != nil {
		return nil, err
	}

	var wrapped pairingListResponse
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return wrapped.Data, nil
	}
	var plain []Pairing
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain, nil
	}
	if c.logger != nil {
		c.logger.Warnw("bcp: could not parse pairings response", "event_id", eventID)
	}
	return nil, nil
}

type playerStats struct {
	name             string
	faction          string
	playerID         string
	armyListObjectID string
	wins, losses, draws, battlePoints int
}

// ComputeStandings synthesizes final standings from raw pairings: it
// accumulates each player's win/loss/draw tally and battle points across
// every round, then ranks by wins descending with battle points as the
// tiebreaker.
func (c *Client) ComputeStandings(pairings []Pairing, players []Player) []Standing {
	playerInfo := make(map[string]Player, len(players))
	for _, p := range players {
		if p.ID != "" {
			playerInfo[p.ID] = p
		}
	}

	stats := make(map[string]*playerStats)
	accumulate := func(side *PairingPlayer, result *int, points *GamePoints) {
		if side == nil || side.ID == "" {
			return
		}
		ps, ok := stats[side.ID]
		if !ok {
			faction := side.ArmyName
			if info, found := playerInfo[side.ID]; found {
				if n := info.FactionName(); n != "" {
					faction = n
				}
			}
			ps = &playerStats{
				name:             side.FullName(),
				faction:          faction,
				playerID:         side.ID,
				armyListObjectID: side.ArmyListObjectID,
			}
			stats[side.ID] = ps
		}
		if result != nil {
			switch *result {
			case 2:
				ps.wins++
			case 0:
				ps.losses++
			case 1:
				ps.draws++
			}
		}
		if points != nil {
			ps.battlePoints += int(*points)
		}
	}

	for _, pairing := range pairings {
		if pairing.MetaData == nil {
			continue
		}
		accumulate(pairing.Player1, pairing.MetaData.P1GameResult, pairing.MetaData.P1GamePoints)
		accumulate(pairing.Player2, pairing.MetaData.P2GameResult, pairing.MetaData.P2GamePoints)
	}

	list := make([]*playerStats, 0, len(stats))
	for _, ps := range stats {
		list = append(list, ps)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].wins != list[j].wins {
			return list[i].wins > list[j].wins
		}
		return list[i].battlePoints > list[j].battlePoints
	})

	standings := make([]Standing, len(list))
	for i, ps := range list {
		standings[i] = Standing{
			Placing:           i + 1,
			PlayerName:        ps.name,
			Faction:           ps.faction,
			Wins:              ps.wins,
			Losses:            ps.losses,
			Draws:             ps.draws,
			TotalBattlePoints: ps.battlePoints,
			PlayerID:          ps.playerID,
			ArmyListObjectID:  ps.armyListObjectID,
		}
	}
	return standings
}

// FetchStandings is the main entry point for retrieving an event's final
// standings: it fetches players and pairings, then synthesizes standings
// since the v1 API does not expose a standings endpoint directly.
func (c *Client) FetchStandings(ctx context.Context, eventID string) ([]Standing, error) {
	players, err := c.FetchPlayers(ctx, eventID)
	if err != nil {
		return nil, err
	}
	pairings, err := c.FetchPairings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(pairings) == 0 {
		if c.logger != nil {
			c.logger.Infow("bcp: no pairings, returning empty standings", "event_id", eventID)
		}
		return nil, nil
	}
	return c.ComputeStandings(pairings, players), nil
}

// FetchArmyList mirrors an army list's raw text from Listhammer, which
// republishes BCP list data under the same event/player IDs with no auth or
// CAPTCHA, for top-performing players at events with 20+ entrants. A nil
// string with a nil error means no list is available for this player; it is
// distinguished from a non-nil error, which means the fetch itself failed.
func (c *Client) FetchArmyList(ctx context.Context, eventID, playerID string) (*string, error) {
	url := fmt.Sprintf("%s/api/eventList?eventId=%s&playerId=%s", c.cfg.ListhammerBase, eventID, playerID)
	result, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		var statusErr *fetch.HTTPStatusError
		if ok := isHTTPStatusErr(err, &statusErr); ok && statusErr.Status == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("bcp: fetching army list: %w", err)
	}
	body, err := c.fetcher.ReadCachedBytes(result)
	if err != nil {
		return nil, err
	}

	var resp struct {
		List string `json:"list"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || strings.TrimSpace(resp.List) == "" {
		return nil, nil
	}
	return &resp.List, nil
}

func isHTTPStatusErr(err error, target **fetch.HTTPStatusError) bool {
	statusErr, ok := err.(*fetch.HTTPStatusError)
	if !ok {
		return false
	}
	*target = statusErr
	return true
}
