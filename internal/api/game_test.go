package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dialGame(t *testing.T, s *testServer, wallet string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/game/ws?token=" + s.token(t, wallet)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()

	require.NoError(t, conn.WriteJSON(Message{Type: msgType}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGameWebSocket_Round(t *testing.T) {
	s := newTestServer()
	next := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	s.gs.On("PlayStatus", mock.Anything, userWallet).
		Return(&service.GameStatus{Available: true, NextAvailableAt: next}, nil)
	s.gs.On("FinishGame", mock.Anything, userWallet, 21).Return(&service.GameResult{
		Score:     21,
		XPAwarded: 10,
		XP:        &model.XPRecord{WalletAddress: userWallet, TotalXP: 10, Level: 1},
	}, nil)

	conn := dialGame(t, s, userWallet)

	state := exchange(t, conn, msgPlayerState)
	assert.Equal(t, msgPlayerState, state.Type)
	assert.Equal(t, true, state.Payload["available"])
	assert.EqualValues(t, next.Unix(), state.Payload["next_available_at_unix"])

	state = exchange(t, conn, msgBallHit)
	assert.Equal(t, msgError, state.Type)
	assert.Equal(t, "game not started", state.Payload["message"])

	state = exchange(t, conn, msgGameStart)
	assert.Equal(t, msgGameState, state.Type)
	assert.Equal(t, true, state.Payload["is_playing"])

	exchange(t, conn, msgBallHit)
	state = exchange(t, conn, msgBallHit)
	assert.EqualValues(t, 21, state.Payload["total_score"])
	assert.EqualValues(t, 11, state.Payload["current_hit_score"])
	assert.EqualValues(t, 2, state.Payload["hit_counter"])

	over := exchange(t, conn, msgBallDropped)
	assert.Equal(t, msgGameOver, over.Type)
	assert.EqualValues(t, 21, over.Payload["final_score"])
	assert.EqualValues(t, 2, over.Payload["final_hit_counter"])
	assert.EqualValues(t, 10, over.Payload["xp_awarded"])
	assert.EqualValues(t, 10, over.Payload["total_xp"])
	assert.Equal(t, false, over.Payload["is_playing"])

	s.gs.AssertExpectations(t)
}

func TestGameWebSocket_AlreadyPlayed(t *testing.T) {
	s := newTestServer()
	next := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	s.gs.On("PlayStatus", mock.Anything, userWallet).
		Return(&service.GameStatus{Available: false, NextAvailableAt: next}, nil)

	conn := dialGame(t, s, userWallet)

	msg := exchange(t, conn, msgGameStart)
	assert.Equal(t, msgError, msg.Type)
	assert.Equal(t, "daily play already used", msg.Payload["message"])
	assert.EqualValues(t, next.Unix(), msg.Payload["next_available_at_unix"])

	msg = exchange(t, conn, "teleport")
	assert.Equal(t, "unknown message type", msg.Payload["message"])

	s.gs.AssertNotCalled(t, "FinishGame", mock.Anything, mock.Anything, mock.Anything)
}

func TestGameWebSocket_RequiresToken(t *testing.T) {
	s := newTestServer()
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/game/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
