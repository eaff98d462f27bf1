package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/auth"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxFrameSize = 4096

const (
	msgPlayerState = "player_state"
	msgGameStart   = "game_start"
	msgBallHit     = "ball_hit"
	msgBallDropped = "ball_dropped"
	msgGameState   = "game_state"
	msgGameOver    = "game_over"
	msgError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type gameConn struct {
	wallet  string
	conn    *websocket.Conn
	session service.GameSession
	mu      sync.Mutex
}

type ballGameRoutes struct {
	gs service.GameServiceI

	mu     sync.Mutex
	active map[string]*gameConn
}

func NewGameRoutes(handler *gin.RouterGroup, gs service.GameServiceI, g Guards) {
	r := &ballGameRoutes{gs: gs, active: make(map[string]*gameConn)}
	h := handler.Group("/game")
	h.Use(g.Auth)
	{
		h.GET("/ws", r.handleWebSocket)
		h.GET("/status", r.Status)
	}
}

func (r *ballGameRoutes) Status(c *gin.Context) {
	wallet, _ := auth.WalletFromContext(c)

	status, err := r.gs.PlayStatus(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to get play status", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get play status")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (r *ballGameRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()
	wallet, _ := auth.WalletFromContext(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info("websocket upgrade failed", logger.Wallet(wallet), zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrameSize)

	game := &gameConn{wallet: wallet, conn: conn}

	// One live connection per wallet; a reconnect drops the previous one.
	r.mu.Lock()
	if prev, ok := r.active[wallet]; ok {
		prev.conn.Close()
	}
	r.active[wallet] = game
	r.mu.Unlock()

	defer func() {
		conn.Close()
		r.mu.Lock()
		if r.active[wallet] == game {
			delete(r.active, wallet)
		}
		r.mu.Unlock()
	}()

	r.gameLoop(c.Request.Context(), game)
}

func (r *ballGameRoutes) gameLoop(ctx context.Context, game *gameConn) {
	log := logger.Logger()

	for {
		_, data, err := game.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("websocket unexpected close", logger.Wallet(game.wallet), zap.Error(err))
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Debug("failed to unmarshal message", logger.Wallet(game.wallet), zap.Error(err))
			r.sendError(game, "invalid message", 0)
			continue
		}

		switch msg.Type {
		case msgPlayerState:
			r.sendPlayerState(ctx, game)

		case msgGameStart:
			if game.session.Playing {
				r.sendGameState(game)
				continue
			}

			status, err := r.gs.PlayStatus(ctx, game.wallet)
			if err != nil {
				log.Error("failed to get play status", logger.Wallet(game.wallet), zap.Error(err))
				r.sendError(game, "failed to get play status", 0)
				continue
			}
			if !status.Available {
				r.sendError(game, "daily play already used", status.NextAvailableAt.Unix())
				continue
			}

			game.session.Start()
			r.sendGameState(game)

		case msgBallHit:
			if !game.session.Playing {
				r.sendError(game, "game not started", 0)
				continue
			}
			game.session.Hit()
			r.sendGameState(game)

		case msgBallDropped:
			if !game.session.Playing {
				r.sendError(game, "game not started", 0)
				continue
			}
			r.handleGameOver(ctx, game)

		default:
			r.sendError(game, "unknown message type", 0)
		}
	}
}

func (r *ballGameRoutes) handleGameOver(ctx context.Context, game *gameConn) {
	log := logger.Logger()

	hits := game.session.HitCounter
	score := game.session.Drop()

	result, err := r.gs.FinishGame(ctx, game.wallet, score)
	if err != nil {
		if errors.Is(err, service.ErrDailyLimitReached) {
			status, statusErr := r.gs.PlayStatus(ctx, game.wallet)
			next := int64(0)
			if statusErr == nil {
				next = status.NextAvailableAt.Unix()
			}
			r.sendError(game, "daily play already used", next)
			return
		}
		log.Error("failed to finish game", logger.Wallet(game.wallet), zap.Int("score", score), zap.Error(err))
		r.sendError(game, "failed to record game", 0)
		return
	}

	payload := map[string]any{
		"final_score":       result.Score,
		"final_hit_counter": hits,
		"xp_awarded":        result.XPAwarded,
		"is_playing":        false,
	}
	if result.XP != nil {
		payload["total_xp"] = result.XP.TotalXP
		payload["level"] = result.XP.Level
	}

	r.send(game, Message{Type: msgGameOver, Payload: payload})
}

func (r *ballGameRoutes) sendPlayerState(ctx context.Context, game *gameConn) {
	status, err := r.gs.PlayStatus(ctx, game.wallet)
	if err != nil {
		logger.Logger().Error("failed to get play status", logger.Wallet(game.wallet), zap.Error(err))
		r.sendError(game, "failed to get play status", 0)
		return
	}

	r.send(game, Message{
		Type: msgPlayerState,
		Payload: map[string]any{
			"available":              status.Available,
			"next_available_at_unix": status.NextAvailableAt.Unix(),
			"is_playing":             game.session.Playing,
		},
	})
}

func (r *ballGameRoutes) sendGameState(game *gameConn) {
	r.send(game, Message{
		Type: msgGameState,
		Payload: map[string]any{
			"total_score":       game.session.TotalScore,
			"current_hit_score": game.session.LastHitScore,
			"hit_counter":       game.session.HitCounter,
			"is_playing":        game.session.Playing,
		},
	})
}

func (r *ballGameRoutes) sendError(game *gameConn, message string, nextAvailableUnix int64) {
	payload := map[string]any{"message": message}
	if nextAvailableUnix > 0 {
		payload["next_available_at_unix"] = nextAvailableUnix
	}
	r.send(game, Message{Type: msgError, Payload: payload})
}

func (r *ballGameRoutes) send(game *gameConn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Logger().Error("failed to marshal message", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if err = game.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Logger().Info("failed to write message",
			logger.Wallet(game.wallet),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}
