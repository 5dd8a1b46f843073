package main

import (
	"context"
	"log"
	"time"

	"ClinicLink360/config/db"
	"ClinicLink360/config/graph"
	"ClinicLink360/controllers"
	"ClinicLink360/jobs"
	"ClinicLink360/routes"
	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error in loading the ENV")
	}

	ctx := context.Background()

	graphStore, err := graph.Connect(ctx)
	if err != nil {
		log.Fatalln("Graph store unavailable:", err)
	}
	defer graphStore.Close(ctx)

	mongoStore, err := db.Connect(ctx)
	if err != nil {
		log.Fatalln("Document store unavailable:", err)
	}
	defer mongoStore.Close(ctx)

	maxFileBytes := util.GetEnvInt("MAX_FILE_SIZE_BYTES", util.DefaultMaxFileSizeBytes)
	sessionTTL := time.Duration(util.GetEnvInt("SESSION_TTL_HOURS", util.DefaultSessionTTLHours)) * time.Hour

	allocator := services.NewIDAllocator(graphStore)
	clinical := services.NewClinicalService(graphStore, allocator)
	research := services.NewResearchService(graphStore)
	files := services.NewFileService(graphStore, allocator, maxFileBytes)
	messaging := services.NewMessagingService(mongoStore, mongoStore, sessionTTL, maxFileBytes)
	conversations := services.NewConversationService(mongoStore, mongoStore, maxFileBytes)
	bridge := services.NewBridgeService(graphStore, mongoStore)

	auth := controllers.NewAuthController(messaging)

	sweeper := jobs.StartSessionSweeper(mongoStore)
	defer sweeper.Stop()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Session-Id"},
		AllowCredentials: true,
	}))

	routes.Routes(r,
		controllers.NewClinicalController(clinical),
		controllers.NewFilesController(files),
		controllers.NewResearchController(research),
		auth,
		controllers.NewChatController(conversations, messaging, auth),
		controllers.NewBridgeController(bridge),
	)

	port := util.GetEnv("PORT", "8080")
	if err := r.Run(":" + port); err != nil {
		log.Fatalln("Server stopped:", err)
	}
}
