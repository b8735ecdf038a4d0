package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()

	type echoReq struct {
		Text string `json:"text"`
	}
	type echoRes struct {
		Text string `json:"text"`
	}
	Register(r, "echo", func(_ context.Context, cc *ConnContext, req echoReq) (echoRes, error) {
		return echoRes{Text: cc.UserID + ":" + req.Text}, nil
	})

	cc := &ConnContext{AuctionID: "a1", UserID: "alice"}

	t.Run("typed_roundtrip", func(t *testing.T) {
		res, err := r.dispatch(context.Background(), cc, Envelope{
			Event: "echo",
			Body:  json.RawMessage(`{"text":"hi"}`),
		})
		require.NoError(t, err)
		require.Equal(t, echoRes{Text: "alice:hi"}, res)
	})

	t.Run("empty_body_zero_request", func(t *testing.T) {
		res, err := r.dispatch(context.Background(), cc, Envelope{Event: "echo"})
		require.NoError(t, err)
		require.Equal(t, echoRes{Text: "alice:"}, res)
	})

	t.Run("unknown_event", func(t *testing.T) {
		_, err := r.dispatch(context.Background(), cc, Envelope{Event: "nope"})
		require.EqualError(t, err, "unknown_event")
	})

	t.Run("malformed_body", func(t *testing.T) {
		_, err := r.dispatch(context.Background(), cc, Envelope{
			Event: "echo",
			Body:  json.RawMessage(`{"text":`),
		})
		require.Error(t, err)
	})

	t.Run("handler_error_passed_through", func(t *testing.T) {
		sentinel := errors.New("boom")
		Register(r, "fail", func(context.Context, *ConnContext, echoReq) (echoRes, error) {
			return echoRes{}, sentinel
		})
		_, err := r.dispatch(context.Background(), cc, Envelope{Event: "fail"})
		require.ErrorIs(t, err, sentinel)
	})
}

func TestWrapRedisEvent(t *testing.T) {
	out, err := wrapRedisEvent(`{"event":"bid","bid_id":"b1","amount":1000}`)
	require.NoError(t, err)

	var env struct {
		Event string         `json:"event"`
		Body  map[string]any `json:"body"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	require.Equal(t, "auctions/bid", env.Event)
	require.Equal(t, "b1", env.Body["bid_id"])
	require.NotContains(t, env.Body, "event")
}
