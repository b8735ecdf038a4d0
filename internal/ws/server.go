package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionengine/internal/engine"
	"auctionengine/internal/models"
	"auctionengine/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub    *Hub
	subMgr *subscriptionManager
	router *Router
	eng    *engine.Engine
}

func NewWsServer(h *Hub, rdc *redis.Client, eng *engine.Engine) *WsServer {
	srv := &WsServer{
		hub:    h,
		subMgr: newSubscriptionManager(rdc, h),
		router: NewRouter(),
		eng:    eng,
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	userID := ginCtx.Query("user_id")
	if auctionID == "" || userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id and user_id are required"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	// ─────────────────── Client joined ────────────────────────
	wsConn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, wsConn)
	s.subMgr.Subscribe(auctionID)

	// Initial snapshot.
	if err := s.pushInitialSnapshot(ginCtx.Request.Context(), auctionID, wsConn); err != nil &&
		!errors.Is(err, store.ErrNotFound) {
		zap.L().Warn("ws.snapshot", zap.Error(err))
	}

	go s.reader(auctionID, userID, wsConn)
	go s.pinger(wsConn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 auctions/bid ---------------------------------------------------------
	Register(
		s.router,
		"auctions/bid",
		func(ctx context.Context, cc *ConnContext, req BidRequest) (BidAck, error) {
			if req.Amount <= 0 {
				return BidAck{}, errors.New("invalid_amount")
			}
			bid, err := cc.Server.eng.SubmitBid(ctx, cc.AuctionID, cc.UserID,
				models.NewAmount(req.Amount, models.Currency(req.Currency)))
			if err != nil {
				return BidAck{}, err
			}
			return BidAck{BidID: bid.ID, Seq: bid.Seq}, nil
		},
	)
}

func (s *WsServer) pushInitialSnapshot(ctx context.Context, id string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	snap, err := s.eng.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	body := SnapshotBody{
		Phase:    string(snap.Phase),
		Currency: string(snap.Auction.Currency),
		StartsAt: snap.Auction.StartsAt.Unix(),
		EndsAt:   snap.Auction.Deadline().Unix(),
		BidCount: snap.BidCount,
	}
	// Sealed leading bids stay hidden until close, and bidder identities
	// are shown only on open-bidder auctions.
	if lead := snap.LeadingBid; lead != nil && snap.Auction.Type != models.TypeSealed {
		body.HighBid = &lead.Amount.Value
		if snap.Auction.OpenBidders {
			body.HighBidder = lead.BidderID
		}
	}
	return conn.writeJSON(gin.H{
		"event": "auctions/snapshot",
		"body":  body,
	})
}

func (s *WsServer) reader(auctionID, userID string, conn *clientConn) {
	defer func() {
		s.hub.Leave(auctionID, conn)
		s.subMgr.Unsubscribe(auctionID)
	}()

	cc := &ConnContext{AuctionID: auctionID, UserID: userID, Server: s}

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  errorBody(err),
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

// errorBody keeps the rejection reason machine-readable on the socket.
func errorBody(err error) ErrorBody {
	var rej *models.RejectionError
	if errors.As(err, &rej) {
		return ErrorBody{Error: rej.Detail, Reason: string(rej.Reason)}
	}
	return ErrorBody{Error: err.Error()}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			_ = conn.close()
			return
		}
	}
}
