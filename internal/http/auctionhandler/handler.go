package auctionhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"auctionengine/internal/engine"
	"auctionengine/internal/models"
	"auctionengine/internal/store"
)

type Handler struct {
	eng *engine.Engine
}

func New(eng *engine.Engine) *Handler { return &Handler{eng: eng} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/auctions", h.create)
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.POST("/auctions/:id/bids", h.bid)
	r.GET("/auctions/:id/result", h.result)
	r.POST("/auctions/:id/resolve", h.resolve)
}

// @Summary		Create an auction
// @Description	Creates a listing; type-specific options are validated here.
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Auction definition"
// @Success		201		{object}	AuctionResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	a, err := h.eng.CreateAuction(ginCtx.Request.Context(), engine.CreateAuctionCommand{
		Title:       body.Title,
		SellerID:    body.SellerID,
		Currency:    body.Currency,
		Type:        models.AuctionType(body.Type),
		Options:     body.Options,
		StartsAt:    body.StartsAt,
		Expiry:      body.Expiry,
		OpenBidders: body.OpenBidders,
	})
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, auctionResponse(a, models.PhaseScheduled, nil, 0))
}

// @Summary		Get auction details
// @Description	Returns the auction's current snapshot.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	AuctionResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	snap, err := h.eng.GetSnapshot(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, auctionResponse(&snap.Auction, snap.Phase, snap.LeadingBid, snap.BidCount))
}

// @Summary		List auctions
// @Description	Retrieves a paginated list of auctions, optionally filtered by status.
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"			Enums(OPEN,CLOSED)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		AuctionResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(ginCtx *gin.Context) {
	var q ListAuctionsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	auctions, err := h.eng.ListAuctions(ginCtx.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	out := make([]AuctionResponse, 0, len(auctions))
	for i := range auctions {
		a := &auctions[i]
		phase := models.PhaseOpen
		if a.Closed {
			phase = models.PhaseClosed
		}
		out = append(out, *auctionResponse(a, phase, nil, 0))
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Place a bid
// @Description	Submits a bid; amount is in integer minor units.
// @Tags			Auctions
// @Param			id		path	string			true	"Auction ID"
// @Param			body	body	PlaceBidBody	true	"Bid payload"
// @Success		202	{object}	BidAcceptedResponse
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Failure		502	{object}	ErrorResponse
// @Router			/auctions/{id}/bids [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	bid, err := h.eng.SubmitBid(ginCtx.Request.Context(),
		ginCtx.Param("id"),
		body.BidderID,
		models.NewAmount(body.Amount, models.Currency(body.Currency)),
	)
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusAccepted, &BidAcceptedResponse{BidID: bid.ID, Seq: bid.Seq})
}

// @Summary		Get auction result
// @Description	Returns the winner once the auction is resolved.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	ResultResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/result [get]
func (h *Handler) result(ginCtx *gin.Context) {
	res, err := h.eng.GetResult(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	if res == nil {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: "auction not resolved yet"})
		return
	}
	ginCtx.JSON(http.StatusOK, resultResponse(res))
}

// @Summary		Resolve an auction if due
// @Description	Finalises the auction when its deadline has passed; no-op otherwise.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	ResultResponse
// @Success		204
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/resolve [post]
func (h *Handler) resolve(ginCtx *gin.Context) {
	res, err := h.eng.ResolveIfDue(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		writeError(ginCtx, err)
		return
	}
	if res == nil {
		ginCtx.Status(http.StatusNoContent)
		return
	}
	ginCtx.JSON(http.StatusOK, resultResponse(res))
}

// ---------------------------------------------------------------------------
//  mapping helpers
// ---------------------------------------------------------------------------

func auctionResponse(a *models.Auction, phase models.Phase, lead *models.Bid, bidCount int) *AuctionResponse {
	out := &AuctionResponse{
		ID:          a.ID,
		Title:       a.Title,
		SellerID:    a.SellerID,
		Currency:    string(a.Currency),
		Type:        string(a.Type),
		Phase:       string(phase),
		StartsAt:    a.StartsAt,
		Expiry:      a.Expiry,
		EndsAt:      a.EndsAt,
		OpenBidders: a.OpenBidders,
		BidCount:    bidCount,
	}
	// Sealed prices stay hidden until close; bidder identities are only
	// shown on open-bidder auctions.
	if lead != nil && a.Type != models.TypeSealed {
		out.HighBid = &lead.Amount.Value
		if a.OpenBidders {
			out.HighBidder = lead.BidderID
		}
	}
	return out
}

func resultResponse(res *models.Result) *ResultResponse {
	out := &ResultResponse{AuctionID: res.AuctionID, ResolvedAt: res.ResolvedAt}
	if res.Winner != nil {
		out.Winner = res.Winner.BidderID
		out.WinningBid = &res.Winner.Amount.Value
		out.Price = &res.Price.Value
	}
	return out
}

func writeError(ginCtx *gin.Context, err error) {
	var rej *models.RejectionError
	var cfg *models.ConfigurationError
	switch {
	case errors.As(err, &rej):
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: rej.Detail, Reason: string(rej.Reason)})
	case errors.As(err, &cfg):
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: cfg.Error()})
	case errors.Is(err, store.ErrNotFound):
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrExists):
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
	default:
		// EngineError: retryable, nothing was applied.
		ginCtx.JSON(http.StatusBadGateway, &ErrorResponse{Error: err.Error()})
	}
}
