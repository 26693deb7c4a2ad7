package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/service"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/usecase"
)

// streamMessage クライアントから届くストリームメッセージ
// type は "sample"（位置サンプル）か "permission_denied"（権限喪失の報告）
type streamMessage struct {
	Type   string                       `json:"type"`
	Sample *model.LocationSampleRequest `json:"sample,omitempty"`
}

// streamEvent サーバーからクライアントへ返すイベント
type streamEvent struct {
	Type        string                     `json:"type"` // "claim_update" / "exploration_update" / "error"
	Claim       *model.ClaimUpdate         `json:"claim,omitempty"`
	Exploration *service.ExplorationUpdate `json:"exploration,omitempty"`
	Message     string                     `json:"message,omitempty"`
}

// LocationStreamHandler WebSocketによる位置サンプルのストリーム受信
// HTTPのPOSTと同じ処理系に流すだけで、セッションの直列化はユースケース側が担う
type LocationStreamHandler struct {
	claimUseCase       usecase.TerritoryClaimUseCase
	explorationUseCase usecase.ExplorationUseCase
	upgrader           websocket.Upgrader
}

// NewLocationStreamHandler LocationStreamHandlerの新しいインスタンスを作成
func NewLocationStreamHandler(claimUseCase usecase.TerritoryClaimUseCase, explorationUseCase usecase.ExplorationUseCase) *LocationStreamHandler {
	return &LocationStreamHandler{
		claimUseCase:       claimUseCase,
		explorationUseCase: explorationUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream GET /ws/location/:player_id?mode=claim|exploration
func (h *LocationStreamHandler) Stream(c *gin.Context) {
	playerID := c.Param("player_id")
	mode := c.DefaultQuery("mode", "claim")
	if mode != "claim" && mode != "exploration" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "mode must be claim or exploration",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.writeEvent(conn, &streamEvent{Type: "error", Message: "メッセージの形式が正しくありません"})
			continue
		}

		event := h.handleMessage(c, playerID, mode, &msg)
		if event != nil {
			h.writeEvent(conn, event)
		}
	}
}

func (h *LocationStreamHandler) handleMessage(c *gin.Context, playerID, mode string, msg *streamMessage) *streamEvent {
	ctx := c.Request.Context()

	switch msg.Type {
	case "permission_denied":
		// 権限喪失は終端状態としてセッションを強制終了する
		if mode == "claim" {
			if _, err := h.claimUseCase.ReportPermissionDenied(ctx, playerID); err != nil {
				return &streamEvent{Type: "error", Message: err.Error()}
			}
			return &streamEvent{Type: "claim_update", Message: "位置情報の権限が失われたため終了しました"}
		}
		if _, err := h.explorationUseCase.CancelExploration(ctx, playerID); err != nil {
			return &streamEvent{Type: "error", Message: err.Error()}
		}
		return &streamEvent{Type: "exploration_update", Message: "位置情報の権限が失われたため終了しました"}

	case "sample":
		if msg.Sample == nil {
			return &streamEvent{Type: "error", Message: "sampleフィールドがありません"}
		}
		sample := msg.Sample.ToSample()

		if mode == "claim" {
			update, err := h.claimUseCase.OnLocationUpdate(ctx, playerID, sample)
			if err != nil {
				return &streamEvent{Type: "error", Message: err.Error()}
			}
			return &streamEvent{Type: "claim_update", Claim: update}
		}

		update, err := h.explorationUseCase.OnLocationUpdate(ctx, playerID, sample)
		if err != nil {
			return &streamEvent{Type: "error", Message: err.Error()}
		}
		return &streamEvent{Type: "exploration_update", Exploration: update}

	default:
		return &streamEvent{Type: "error", Message: "未知のメッセージタイプ: " + msg.Type}
	}
}

func (h *LocationStreamHandler) writeEvent(conn *websocket.Conn, event *streamEvent) {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("⚠️ WebSocketイベント送信失敗: %v", err)
	}
}
