package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/textsnake/assets"
	"github.com/robalobadob/textsnake/internal/config"
	"github.com/robalobadob/textsnake/internal/game"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/scores"
	"github.com/robalobadob/textsnake/internal/store"
	"github.com/robalobadob/textsnake/internal/tick"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// A 4x4 board: the snake spawns at (2,2) heading right and hits the wall
// within two ticks, so every game is over after 400ms.
var smallRules = game.Rules{GridSize: 4, InitialSpeed: 200, SpeedStep: 5, MinSpeed: 50}

type testEnv struct {
	ts     *httptest.Server
	clk    *tick.ManualClock
	st     store.Store
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := scores.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	migrations, err := assets.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if err := scores.Migrate(db, migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	glyphs, err := render.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "textsnake_token",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "test_salt",
		Rules:          smallRules,
	}
	clk := tick.NewManualClock(epoch)
	st := store.NewMemoryStore()
	srv := New(cfg, st, scores.NewStore(db), glyphs, WithClock(clk))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(st.CloseAll)

	jar, _ := cookiejar.New(nil)
	return &testEnv{ts: ts, clk: clk, st: st, client: &http.Client{Jar: jar}}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	out, _ := io.ReadAll(res.Body)
	return res.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func (e *testEnv) newGame(t *testing.T, mode string) newGameRes {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/game/new", map[string]string{"mode": mode})
	if code != http.StatusCreated && code != http.StatusOK {
		t.Fatalf("POST /game/new = %d %s", code, body)
	}
	return decode[newGameRes](t, body)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	code, body := e.do(t, http.MethodGet, "/health", nil)
	if code != http.StatusOK || !strings.Contains(string(body), `"ok":true`) {
		t.Fatalf("GET /health = %d %s", code, body)
	}
}

func TestNewGameReturnsFreshState(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")

	if g.GameID == "" || g.Mode != "classic" || g.State == nil {
		t.Fatalf("unexpected response: %+v", g)
	}
	st := g.State
	if len(st.Snake) != 1 || st.Snake[0] != (game.Position{X: 2, Y: 2}) {
		t.Fatalf("snake = %v, want [(2,2)]", st.Snake)
	}
	if st.Direction != game.Right || st.Score != 0 || st.GameOver || st.GridSize != 4 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.Speed == nil || *st.Speed != 200 || st.Food == nil {
		t.Fatalf("speed/food missing: %+v", st)
	}
	if g.Glyphs.Snake == "" || g.Glyphs.Food == "" {
		t.Fatalf("glyphs missing: %+v", g.Glyphs)
	}
}

func TestGameAdvancesOnTheClock(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")

	e.clk.Advance(200 * time.Millisecond)
	code, body := e.do(t, http.MethodGet, "/game/"+g.GameID, nil)
	if code != http.StatusOK {
		t.Fatalf("GET = %d", code)
	}
	st := decode[stateRes](t, body)
	if st.Tick != 1 || st.Snake[0] != (game.Position{X: 3, Y: 2}) {
		t.Fatalf("after one tick: %+v", st)
	}
}

func TestKeyInput(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")
	path := "/game/" + g.GameID + "/key"

	cases := []struct {
		key      string
		accepted bool
	}{
		{"ArrowLeft", false}, // reversal
		{"Enter", false},
		{"ArrowUp", true},
	}
	for _, tc := range cases {
		code, body := e.do(t, http.MethodPost, path, keyReq{Key: tc.key})
		if code != http.StatusOK {
			t.Fatalf("POST key %q = %d %s", tc.key, code, body)
		}
		if res := decode[keyRes](t, body); res.Accepted != tc.accepted {
			t.Fatalf("key %q accepted = %v, want %v", tc.key, res.Accepted, tc.accepted)
		}
	}

	if code, _ := e.do(t, http.MethodPost, path, nil); code != http.StatusBadRequest {
		t.Fatalf("empty key body = %d, want 400", code)
	}
}

func TestRestartOnlyWhenOver(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")
	path := "/game/" + g.GameID + "/restart"

	if code, _ := e.do(t, http.MethodPost, path, nil); code != http.StatusConflict {
		t.Fatalf("restart while running = %d, want 409", code)
	}

	e.clk.Advance(time.Second)
	_, body := e.do(t, http.MethodGet, "/game/"+g.GameID, nil)
	if st := decode[stateRes](t, body); !st.GameOver || st.Speed != nil {
		t.Fatalf("expected game over with null speed: %s", body)
	}

	code, body := e.do(t, http.MethodPost, path, nil)
	if code != http.StatusOK {
		t.Fatalf("restart after game over = %d %s", code, body)
	}
	st := decode[stateRes](t, body)
	if st.GameOver || st.Tick != 0 || len(st.Snake) != 1 {
		t.Fatalf("restart did not reset: %+v", st)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	e := newTestEnv(t)
	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/game/nope"},
		{http.MethodGet, "/game/nope/board"},
		{http.MethodPost, "/game/nope/key"},
		{http.MethodPost, "/game/nope/restart"},
		{http.MethodGet, "/no/such/route"},
	} {
		if code, _ := e.do(t, req.method, req.path, nil); code != http.StatusNotFound {
			t.Fatalf("%s %s = %d, want 404", req.method, req.path, code)
		}
	}
}

func TestDeleteClosesSession(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")

	if code, _ := e.do(t, http.MethodDelete, "/game/"+g.GameID, nil); code != http.StatusOK {
		t.Fatalf("DELETE = %d", code)
	}
	if code, _ := e.do(t, http.MethodGet, "/game/"+g.GameID, nil); code != http.StatusNotFound {
		t.Fatalf("GET after delete = %d, want 404", code)
	}
	if e.st.Len() != 0 {
		t.Fatalf("store still holds %d sessions", e.st.Len())
	}
}

func TestBoardIsPlainText(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")

	res, err := e.client.Get(e.ts.URL + "/game/" + g.GameID + "/board")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 5 || lines[4] != "Score: 0" {
		t.Fatalf("board = %q", body)
	}
}

func TestFinishedGameReachesLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	e.newGame(t, "classic")
	e.clk.Advance(time.Second)

	code, body := e.do(t, http.MethodGet, "/scores/top", nil)
	if code != http.StatusOK {
		t.Fatalf("GET /scores/top = %d", code)
	}
	res := decode[struct {
		Rows []scores.LBRow `json:"rows"`
	}](t, body)
	if len(res.Rows) != 1 || res.Rows[0].Player != "guest" {
		t.Fatalf("leaderboard = %+v", res.Rows)
	}
}

func TestDailyPlayedOncePerDay(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "daily")
	if g.Date != "2024-05-01" || g.Played {
		t.Fatalf("first daily: %+v", g)
	}
	e.clk.Advance(time.Second)

	again := e.newGame(t, "daily")
	if !again.Played || again.GameID != "" {
		t.Fatalf("second daily should be refused: %+v", again)
	}

	_, body := e.do(t, http.MethodGet, "/daily/leaderboard?date=2024-05-01", nil)
	res := decode[struct {
		Date string         `json:"date"`
		Rows []scores.LBRow `json:"rows"`
	}](t, body)
	if res.Date != "2024-05-01" || len(res.Rows) != 1 {
		t.Fatalf("daily leaderboard = %s", body)
	}

	if code, _ := e.do(t, http.MethodGet, "/daily/leaderboard?date=yesterday", nil); code != http.StatusBadRequest {
		t.Fatalf("bad date = %d, want 400", code)
	}
}

func TestDailySeedGivesSameFood(t *testing.T) {
	a := newTestEnv(t)
	b := newTestEnv(t)
	ga := a.newGame(t, "daily")
	gb := b.newGame(t, "daily")
	if *ga.State.Food != *gb.State.Food {
		t.Fatalf("daily food differs: %v vs %v", *ga.State.Food, *gb.State.Food)
	}
}

func TestSignupLoginAndClaim(t *testing.T) {
	e := newTestEnv(t)

	// Play as a guest first; signing up claims the game.
	e.newGame(t, "classic")
	e.clk.Advance(time.Second)

	creds := map[string]string{"username": "alice_1", "password": "correct horse"}
	if code, body := e.do(t, http.MethodPost, "/auth/signup", creds); code != http.StatusCreated {
		t.Fatalf("signup = %d %s", code, body)
	}
	if code, _ := e.do(t, http.MethodPost, "/auth/signup", creds); code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d, want 409", code)
	}

	code, body := e.do(t, http.MethodGet, "/auth/me", nil)
	if code != http.StatusOK || decode[authUser](t, body).Username != "alice_1" {
		t.Fatalf("GET /auth/me = %d %s", code, body)
	}

	_, body = e.do(t, http.MethodGet, "/games/mine", nil)
	if games := decode[[]scores.GameRow](t, body); len(games) != 1 {
		t.Fatalf("claimed games = %s", body)
	}

	e.do(t, http.MethodPost, "/auth/logout", nil)
	if code, _ := e.do(t, http.MethodGet, "/auth/me", nil); code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", code)
	}

	bad := map[string]string{"username": "alice_1", "password": "wrong password"}
	if code, _ := e.do(t, http.MethodPost, "/auth/login", bad); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", code)
	}
	if code, body := e.do(t, http.MethodPost, "/auth/login", creds); code != http.StatusOK {
		t.Fatalf("login = %d %s", code, body)
	}

	// Signed-in games count toward stats.
	e.newGame(t, "classic")
	e.clk.Advance(time.Second)
	_, body = e.do(t, http.MethodGet, "/stats/me", nil)
	stats := decode[struct {
		GamesPlayed int `json:"gamesPlayed"`
	}](t, body)
	if stats.GamesPlayed != 1 {
		t.Fatalf("stats = %s", body)
	}
}

func TestSignupValidation(t *testing.T) {
	e := newTestEnv(t)
	for _, creds := range []map[string]string{
		{"username": "al", "password": "long enough"},
		{"username": "bad name", "password": "long enough"},
		{"username": "bob", "password": "short"},
	} {
		if code, _ := e.do(t, http.MethodPost, "/auth/signup", creds); code != http.StatusBadRequest {
			t.Fatalf("signup %v = %d, want 400", creds, code)
		}
	}
}

func TestWebSocketStreamsState(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "classic")
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/game/" + g.GameID + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() stateRes {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		env, err := decodeEnvelope(msg)
		if err != nil || env.T != msgState {
			t.Fatalf("unexpected message %s", msg)
		}
		return decode[stateRes](t, env.P)
	}

	if st := read(); st.Tick != 0 {
		t.Fatalf("first message tick = %d, want 0", st.Tick)
	}
	e.clk.Advance(200 * time.Millisecond)
	if st := read(); st.Tick != 1 {
		t.Fatalf("second message tick = %d, want 1", st.Tick)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"key","p":{"key":"ArrowUp"}}`)); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, body := e.do(t, http.MethodGet, "/game/"+g.GameID, nil)
		if decode[stateRes](t, body).Direction == game.Up {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("key sent over websocket was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketUnknownGame(t *testing.T) {
	e := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/game/nope/ws"

	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for unknown game")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("response = %v, want 404", res)
	}
}

func TestLimitParam(t *testing.T) {
	cases := map[string]int{"": 20, "5": 5, "-1": 20, "abc": 20, "1000": 100}
	for q, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/scores/top?limit="+q, nil)
		if got := limitParam(r); got != want {
			t.Errorf("limit=%q: got %d, want %d", q, got, want)
		}
	}
}
