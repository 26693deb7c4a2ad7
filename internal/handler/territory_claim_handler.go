package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/usecase"
)

// TerritoryClaimHandler 領土獲得セッションAPIのハンドラー
type TerritoryClaimHandler struct {
	claimUseCase usecase.TerritoryClaimUseCase
}

// NewTerritoryClaimHandler TerritoryClaimHandlerの新しいインスタンスを作成
func NewTerritoryClaimHandler(claimUseCase usecase.TerritoryClaimUseCase) *TerritoryClaimHandler {
	return &TerritoryClaimHandler{
		claimUseCase: claimUseCase,
	}
}

// StartClaim POST /territories/claims/:player_id/start - セッション開始
func (h *TerritoryClaimHandler) StartClaim(c *gin.Context) {
	playerID := c.Param("player_id")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "player_id is required",
		})
		return
	}

	var req model.LocationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	response, err := h.claimUseCase.StartClaim(c.Request.Context(), playerID, req.ToSample())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "start_failed",
			"message": err.Error(),
		})
		return
	}

	// 開始地点が他領土内の場合は409で理由を返す
	if !response.Started {
		c.JSON(http.StatusConflict, response)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// OnLocationUpdate POST /territories/claims/:player_id/location - サンプル投入
func (h *TerritoryClaimHandler) OnLocationUpdate(c *gin.Context) {
	playerID := c.Param("player_id")

	var req model.LocationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	update, err := h.claimUseCase.OnLocationUpdate(c.Request.Context(), playerID, req.ToSample())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_active_session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, update)
}

// StopClaim POST /territories/claims/:player_id/stop - セッション停止
func (h *TerritoryClaimHandler) StopClaim(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.claimUseCase.StopClaim(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_active_session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReportPermissionDenied POST /territories/claims/:player_id/permission-denied
// 位置情報権限の喪失をクライアントが報告する
func (h *TerritoryClaimHandler) ReportPermissionDenied(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.claimUseCase.ReportPermissionDenied(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_active_session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetryUpload POST /territories/claims/:player_id/retry-upload - 失敗した永続化の再試行
func (h *TerritoryClaimHandler) RetryUpload(c *gin.Context) {
	playerID := c.Param("player_id")

	result, err := h.claimUseCase.RetryUpload(c.Request.Context(), playerID)
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
