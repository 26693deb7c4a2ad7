package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
)

// TerritoriesHandler 領土一覧APIのハンドラー（地図表示用）
type TerritoriesHandler struct {
	territoriesRepo repository.TerritoriesRepository
}

// NewTerritoriesHandler TerritoriesHandlerの新しいインスタンスを作成
func NewTerritoriesHandler(territoriesRepo repository.TerritoriesRepository) *TerritoriesHandler {
	return &TerritoriesHandler{
		territoriesRepo: territoriesRepo,
	}
}

// GetTerritoriesByBoundingBox GET /territories - 境界ボックス内の領土一覧を取得
func (h *TerritoriesHandler) GetTerritoriesByBoundingBox(c *gin.Context) {
	bbox := c.Query("bbox")
	if bbox == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "bbox parameter is required (format: min_lng,min_lat,max_lng,max_lat)",
		})
		return
	}

	coords := strings.Split(bbox, ",")
	if len(coords) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "bbox must contain 4 coordinates: min_lng,min_lat,max_lng,max_lat",
		})
		return
	}

	values := make([]float64, 4)
	names := []string{"min_lng", "min_lat", "max_lng", "max_lat"}
	for i, coord := range coords {
		v, err := strconv.ParseFloat(coord, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_parameter",
				"message": "Invalid " + names[i] + " value",
			})
			return
		}
		values[i] = v
	}

	territories, err := h.territoriesRepo.GetByBoundingBox(c.Request.Context(), values[0], values[1], values[2], values[3])
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get territories: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"territories": territories})
}
