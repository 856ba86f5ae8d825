package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/database"
	dochandler "github.com/quicksign/quicksign/internal/document/handler"
	docrepo "github.com/quicksign/quicksign/internal/document/repository"
	docservice "github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/internal/notify"
	reqrepo "github.com/quicksign/quicksign/internal/request/repository"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/internal/storage"
	"github.com/quicksign/quicksign/pkg/logger"
)

// Standalone document service: the document, field and signature-request APIs
// without accounts or email. Requests are attributed via the X-User-ID header.
// Useful for local frontend development and integration tests.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var (
		docsRepo  docrepo.Repository
		fieldRepo field.Repository
		reqRepo   reqrepo.Repository
	)
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v); using memory-backed repos", err)
		} else {
			db := client.Database(os.Getenv("MONGODB_DATABASE"))
			docsRepo = docrepo.NewMongoRepo(db.Collection("documents"))
			fieldRepo = field.NewMongoRepository(db.Collection("fields"))
			reqRepo = reqrepo.NewMongoRepository(db.Collection("signature_requests"))
		}
	}
	if docsRepo == nil {
		docsRepo = docrepo.NewMemoryRepo()
		fieldRepo = field.NewMemoryRepository()
		reqRepo = reqrepo.NewMemoryRepository()
	}

	local, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		logger.Fatalf("failed to initialize upload dir %s: %v", uploadDir, err)
	}

	docsSvc := docservice.New(docsRepo, local, 10<<20)
	fieldSvc := field.NewService(fieldRepo, docsRepo)
	noUsers := func(ctx context.Context, id string) (*models.User, error) {
		return nil, errors.New("no user store")
	}
	workflowSvc := reqservice.New(reqRepo, docsRepo, fieldSvc, notify.NewOutbox(notify.Disabled{}), noUsers, "http://localhost:"+port)

	headerAuth := func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			id = "local"
		}
		c.Set("userId", id)
		c.Next()
	}
	dochandler.New(docsSvc, workflowSvc, fieldSvc).Register(r.Group("/"), headerAuth)

	logger.Infof("document service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
