package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"realty/internal/config"
	"realty/internal/handler"
	"realty/internal/ingest"
	"realty/internal/repository"
	"realty/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// defaultPrompt is used when the prompt file is missing, so the service still
// starts in a fresh checkout.
const defaultPrompt = "Ты — консультант по продаже квартир в новостройках Владивостока. " +
	"Отвечай кратко и дружелюбно, опирайся на результаты промежуточного анализа, " +
	"если они есть в диалоге, и не выдумывай жилые комплексы."

func main() {
	log.Printf("Realty Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	repo, err := repository.Open(
		cfg.Database.DSN,
		cfg.Database.MaxConnections,
		cfg.Database.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Printf("✅ Connected to catalog store (postgres=%v)", repo.IsPostgres())

	var llm service.ChatClient
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
	llm = openaiClient
	if cfg.OpenAI.Enabled {
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Classifier model: %s", cfg.OpenAI.ClassifierModel)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("⚠️  OpenAI is disabled - the assistant cannot answer")
		log.Println("   Set OPENAI_API_KEY environment variable to enable it")
	}

	// Vector index: pgvector when the catalog runs on Postgres, otherwise an
	// in-process index that is rebuilt from the knowledge files at startup.
	var index service.VectorIndex
	var knowledge *service.KnowledgeService
	if cfg.OpenAI.Enabled {
		if repo.IsPostgres() {
			pgIndex, err := repository.NewPGVectorIndex(ctx, repo.DB(), cfg.OpenAI.EmbeddingDimensions)
			if err != nil {
				log.Fatalf("Failed to initialize pgvector index: %v", err)
			}
			index = pgIndex
			log.Println("✅ pgvector knowledge index ready")
		} else {
			index = repository.NewMemoryVectorIndex()
			log.Println("✅ in-memory knowledge index ready")
		}
		knowledge = service.NewKnowledgeService(llm, index, cfg.Knowledge.TopK)
	}

	loader := ingest.NewLoader(repo, openaiClient, index, cfg.Knowledge.Dir)
	if _, err := os.Stat(cfg.Knowledge.Dir); err == nil {
		if err := loader.Load(ctx); err != nil {
			log.Fatalf("Failed to ingest knowledge files: %v", err)
		}
	} else {
		log.Printf("⚠️  Knowledge dir %s not found - catalog left as is", cfg.Knowledge.Dir)
	}

	prompt := defaultPrompt
	if data, err := os.ReadFile(cfg.Bot.PromptFilePath); err == nil {
		prompt = string(data)
	} else {
		log.Printf("⚠️  Prompt file %s not found - using built-in prompt", cfg.Bot.PromptFilePath)
	}

	conv := service.NewConversationManager(prompt)
	searchService := service.NewSearchService(repo)
	assistant := service.NewAssistant(llm, conv, searchService, knowledge, repo, cfg.Bot, cfg.OpenAI)

	log.Println("✅ Services initialized")

	chatHandler := handler.NewChatHandler(assistant)
	ingestHandler := handler.NewIngestHandler(loader)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "realty-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/chat/reset", chatHandler.Reset)
		apiV1.POST("/catalog/reload", ingestHandler.Reload)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
