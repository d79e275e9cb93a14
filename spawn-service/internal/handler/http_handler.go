package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/pkg/response"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/config"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/ingest"
)

// Pending reports how many commands wait for the next broadcast tick.
type Pending interface {
	Len() int
}

// Counter reports how many renderers are connected.
type Counter interface {
	Count() int
}

// Handler serves health, stats and the HTTP ingestion endpoints.
type Handler struct {
	callbacks ingest.Callbacks
	pending   Pending
	renderers Counter
	stream    config.StreamConfig
}

func NewHandler(cb ingest.Callbacks, pending Pending, renderers Counter, stream config.StreamConfig) *Handler {
	return &Handler{
		callbacks: cb,
		pending:   pending,
		renderers: renderers,
		stream:    stream,
	}
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Username       string `json:"username"`
	Renderers      int    `json:"renderers"`
	Pending        int    `json:"pending"`
	EnemyThreshold int64  `json:"enemy_threshold"`
	BossThreshold  int64  `json:"boss_threshold"`
	ItemThreshold  int64  `json:"item_threshold"`
}

type ConnectRequest struct {
	StreamerID string `json:"streamer_id" binding:"required"`
	RoomID     string `json:"room_id"`
}

type LikeRequest struct {
	Count *int64 `json:"count" binding:"required"`
}

type GiftRequest struct {
	GiftName   string `json:"gift_name" binding:"required"`
	SenderID   string `json:"sender_id" binding:"required"`
	ComboCount *int   `json:"combo_count"`
}

// RegisterRoutes registers health and stats, plus ingestion when enabled.
func (h *Handler) RegisterRoutes(r *gin.Engine, ingestEnabled bool) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/stats", h.Stats)

		if ingestEnabled {
			in := api.Group("/ingest")
			{
				in.POST("/connect", h.Connect)
				in.POST("/like", h.Like)
				in.POST("/gift", h.Gift)
			}
		}
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

func (h *Handler) Stats(c *gin.Context) {
	response.Success(c, StatsResponse{
		Username:       h.stream.Username,
		Renderers:      h.renderers.Count(),
		Pending:        h.pending.Len(),
		EnemyThreshold: h.stream.EnemyThreshold,
		BossThreshold:  h.stream.BossThreshold,
		ItemThreshold:  h.stream.ItemThreshold,
	})
}

// Connect handles POST /api/v1/ingest/connect.
func (h *Handler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.apply(c, func(ctx context.Context) error {
		return h.callbacks.OnConnect(ctx, req.StreamerID, req.RoomID)
	})
}

// Like handles POST /api/v1/ingest/like.
func (h *Handler) Like(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.apply(c, func(ctx context.Context) error {
		return h.callbacks.OnLikeBatch(ctx, *req.Count)
	})
}

// Gift handles POST /api/v1/ingest/gift. A missing combo_count means one gift.
func (h *Handler) Gift(c *gin.Context) {
	var req GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	combo := 1
	if req.ComboCount != nil {
		combo = *req.ComboCount
	}
	giftName := strings.TrimSpace(req.GiftName)
	h.apply(c, func(ctx context.Context) error {
		return h.callbacks.OnGift(ctx, giftName, req.SenderID, combo)
	})
}

func (h *Handler) apply(c *gin.Context, fn func(ctx context.Context) error) {
	ctx := log.WithStreamer(c.Request.Context(), h.stream.Username)
	if err := fn(ctx); err != nil {
		if errors.Is(err, domain.ErrInvalidEvent) {
			response.Unprocessable(c, err.Error())
			return
		}
		response.InternalError(c, "failed to apply event")
		return
	}
	response.Accepted(c, gin.H{"pending": h.pending.Len()})
}
