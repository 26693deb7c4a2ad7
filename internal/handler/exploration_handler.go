package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/usecase"
)

// ExplorationHandler 探索セッションAPIのハンドラー
type ExplorationHandler struct {
	explorationUseCase usecase.ExplorationUseCase
}

// NewExplorationHandler ExplorationHandlerの新しいインスタンスを作成
func NewExplorationHandler(explorationUseCase usecase.ExplorationUseCase) *ExplorationHandler {
	return &ExplorationHandler{
		explorationUseCase: explorationUseCase,
	}
}

// StartExploration POST /explorations/:player_id/start - セッション開始
func (h *ExplorationHandler) StartExploration(c *gin.Context) {
	playerID := c.Param("player_id")

	var req model.LocationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	if err := h.explorationUseCase.StartExploration(c.Request.Context(), playerID, req.ToSample()); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "start_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "started",
		"message": "探索を開始しました",
	})
}

// OnLocationUpdate POST /explorations/:player_id/location - サンプル投入
func (h *ExplorationHandler) OnLocationUpdate(c *gin.Context) {
	playerID := c.Param("player_id")

	var req model.LocationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	update, err := h.explorationUseCase.OnLocationUpdate(c.Request.Context(), playerID, req.ToSample())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_active_session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, update)
}

// StopExploration POST /explorations/:player_id/stop - セッション終了と結果保存
func (h *ExplorationHandler) StopExploration(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.explorationUseCase.StopExploration(c.Request.Context(), playerID)
	if err != nil {
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "no_active_session",
				"message": err.Error(),
			})
			return
		}
		// 結果は計算済みだが保存に失敗した。結果を返しつつエラーを伝える
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "save_failed",
			"message": err.Error(),
			"result":  result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetryUpload POST /explorations/:player_id/retry-upload - 失敗した保存の再試行
func (h *ExplorationHandler) RetryUpload(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.explorationUseCase.RetryUpload(c.Request.Context(), playerID)
	if err != nil {
		status := http.StatusInternalServerError
		if result == nil {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "upload_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelExploration POST /explorations/:player_id/cancel - セッション破棄
func (h *ExplorationHandler) CancelExploration(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.explorationUseCase.CancelExploration(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_active_session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
