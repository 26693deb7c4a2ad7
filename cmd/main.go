package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/database"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/handler"
	infradb "github.com/zjoy95210-blip/EarthLord-sub000/internal/infrastructure/database"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/infrastructure/firestore"
	repoimpl "github.com/zjoy95210-blip/EarthLord-sub000/internal/repository"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")

	if supabaseURL == "" || supabaseAnonKey == "" {
		fmt.Println("⚠️  環境変数が設定されていません:")
		fmt.Println("必要な環境変数: SUPABASE_URL, SUPABASE_ANON_KEY, SUPABASE_DB_PASSWORD, FIRESTORE_PROJECT_ID")
		fmt.Println("\n.envファイルを作成するか、環境変数を設定してください")
		log.Fatal("Environment variables not set")
	}

	ctx := context.Background()

	// 領土ストア（Supabase + PostGIS）
	fmt.Println("Initializing Supabase client...")
	supabaseClient, err := database.NewSupabaseClient()
	if err != nil {
		log.Fatalf("Supabaseクライアント初期化失敗: %v", err)
	}

	fmt.Println("Performing Supabase health check...")
	if err := supabaseClient.HealthCheck(); err != nil {
		log.Fatalf("Supabaseヘルスチェック失敗: %v", err)
	}
	fmt.Println("✅ Supabase connection successful!")

	// POI近傍検索用のPostgreSQL直接接続
	fmt.Println("Initializing PostgreSQL client...")
	postgresClient, err := infradb.NewPostgreSQLClient()
	if err != nil {
		log.Fatalf("PostgreSQLクライアント初期化失敗: %v", err)
	}
	defer postgresClient.Close()
	fmt.Println("✅ PostgreSQL connection successful!")

	// 探索報酬ストア（Firestore）
	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		log.Fatal("FIRESTORE_PROJECT_ID環境変数が設定されていません")
	}
	firestoreClient, err := firestore.NewFirestoreClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Firestoreクライアント初期化失敗: %v", err)
	}
	defer firestoreClient.Close()

	// リポジトリとユースケースの組み立て
	territoriesRepo := repoimpl.NewSupabaseTerritoriesRepository(supabaseClient)
	poisRepo := repoimpl.NewPostgresPOIsRepository(postgresClient)
	rewardsRepo := repoimpl.NewFirestoreRewardsRepository(firestoreClient)

	claimUseCase := usecase.NewTerritoryClaimUseCase(territoriesRepo, nil, nil, nil)
	explorationUseCase := usecase.NewExplorationUseCase(poisRepo, rewardsRepo, nil, nil)

	claimHandler := handler.NewTerritoryClaimHandler(claimUseCase)
	territoriesHandler := handler.NewTerritoriesHandler(territoriesRepo)
	explorationHandler := handler.NewExplorationHandler(explorationUseCase)
	streamHandler := handler.NewLocationStreamHandler(claimUseCase, explorationUseCase)

	// ルーティング設定
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "EarthLord"})
	})

	claims := router.Group("/territories/claims/:player_id")
	{
		claims.POST("/start", claimHandler.StartClaim)
		claims.POST("/location", claimHandler.OnLocationUpdate)
		claims.POST("/stop", claimHandler.StopClaim)
		claims.POST("/permission-denied", claimHandler.ReportPermissionDenied)
		claims.POST("/retry-upload", claimHandler.RetryUpload)
	}
	router.GET("/territories", territoriesHandler.GetTerritoriesByBoundingBox)

	explorations := router.Group("/explorations/:player_id")
	{
		explorations.POST("/start", explorationHandler.StartExploration)
		explorations.POST("/location", explorationHandler.OnLocationUpdate)
		explorations.POST("/stop", explorationHandler.StopExploration)
		explorations.POST("/cancel", explorationHandler.CancelExploration)
		explorations.POST("/retry-upload", explorationHandler.RetryUpload)
	}

	router.GET("/ws/location/:player_id", streamHandler.Stream)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("EarthLord server starting on :%s...\n", port)
	log.Fatal(router.Run(":" + port))
}
