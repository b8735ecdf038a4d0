package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"auctionengine/internal/engine"
	"auctionengine/internal/models"
	"auctionengine/internal/store"
)

func newTestWsServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := engine.New(store.NewMemStore(), nil, engine.Params{})
	// The fan-out subscription never connects in tests; the request/ack
	// path does not depend on it.
	rdc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	srv := NewWsServer(NewHub(), rdc, eng)

	router := gin.New()
	router.GET("/ws", srv.Handle)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, eng
}

func createOpenAuction(t *testing.T, eng *engine.Engine) *models.Auction {
	t.Helper()
	now := time.Now().UTC()
	a, err := eng.CreateAuction(context.Background(), engine.CreateAuctionCommand{
		Title:    "live lot",
		SellerID: "seller-1",
		Currency: "USD",
		Type:     models.TypeEnglish,
		StartsAt: now.Add(-time.Minute),
		Expiry:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	return a
}

func dialWs(t *testing.T, ts *httptest.Server, auctionID, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/ws?auction_id=" + auctionID + "&user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var env struct {
		Event string          `json:"event"`
		Body  json.RawMessage `json:"body"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	return env.Event, env.Body
}

func TestWsRejectsMissingParams(t *testing.T) {
	ts, _ := newTestWsServer(t)

	resp, err := http.Get(ts.URL + "/ws?auction_id=a1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWsSnapshotOnJoin(t *testing.T) {
	ts, eng := newTestWsServer(t)
	a := createOpenAuction(t, eng)

	_, err := eng.SubmitBid(context.Background(), a.ID, "alice",
		models.NewAmount(1000, models.Currency("USD")))
	require.NoError(t, err)

	conn := dialWs(t, ts, a.ID, "bob")
	event, body := readEnvelope(t, conn)
	require.Equal(t, "auctions/snapshot", event)

	var snap SnapshotBody
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Equal(t, "OPEN", snap.Phase)
	require.Equal(t, "USD", snap.Currency)
	require.Equal(t, 1, snap.BidCount)
	require.NotNil(t, snap.HighBid)
	require.Equal(t, int64(1000), *snap.HighBid)
	require.Empty(t, snap.HighBidder) // identities hidden by default
}

func TestWsBidAndAck(t *testing.T) {
	ts, eng := newTestWsServer(t)
	a := createOpenAuction(t, eng)
	conn := dialWs(t, ts, a.ID, "alice")

	// Skip the join snapshot.
	event, _ := readEnvelope(t, conn)
	require.Equal(t, "auctions/snapshot", event)

	require.NoError(t, conn.WriteJSON(Envelope{
		Event: "auctions/bid",
		Body:  json.RawMessage(`{"amount":1000,"currency":"USD"}`),
	}))

	event, body := readEnvelope(t, conn)
	require.Equal(t, "auctions/bid-ack", event)
	var ack BidAck
	require.NoError(t, json.Unmarshal(body, &ack))
	require.NotEmpty(t, ack.BidID)
	require.Equal(t, int64(1), ack.Seq)

	// A second, lower bid is rejected with a machine-readable reason.
	require.NoError(t, conn.WriteJSON(Envelope{
		Event: "auctions/bid",
		Body:  json.RawMessage(`{"amount":500,"currency":"USD"}`),
	}))
	event, body = readEnvelope(t, conn)
	require.Equal(t, "error", event)
	var wsErr ErrorBody
	require.NoError(t, json.Unmarshal(body, &wsErr))
	require.Equal(t, string(models.RejectBelowThreshold), wsErr.Reason)
}

func TestWsUnknownEvent(t *testing.T) {
	ts, eng := newTestWsServer(t)
	a := createOpenAuction(t, eng)
	conn := dialWs(t, ts, a.ID, "alice")

	event, _ := readEnvelope(t, conn)
	require.Equal(t, "auctions/snapshot", event)

	require.NoError(t, conn.WriteJSON(Envelope{Event: "auctions/teleport"}))
	event, body := readEnvelope(t, conn)
	require.Equal(t, "error", event)
	var wsErr ErrorBody
	require.NoError(t, json.Unmarshal(body, &wsErr))
	require.Equal(t, "unknown_event", wsErr.Error)
}
