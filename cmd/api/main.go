package main

import (
	"os"
	"strings"

	_ "shopbooks/api/swagger" // swagger docs
	"shopbooks/internal/config"
	"shopbooks/internal/database"
	"shopbooks/internal/handler"
	"shopbooks/internal/middleware"
	"shopbooks/internal/repository"
	"shopbooks/internal/service"
	"shopbooks/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ShopBooks API
// @version         1.0
// @description     Retail and wholesale management backend: inventory, sales, purchases, parties, settlements, and reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := config.NewLogger()

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("No configs/.env file found, using environment variables")
	}

	dsn := buildDSN()
	db, err := database.NewConnection(dsn)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	log.Info("connected to PostgreSQL")

	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	stocktakeRepo := repository.NewStocktakeRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	companyRepo := repository.NewCompanyRepository(db)

	// Services
	userService := service.NewUserService(userRepo)
	itemService := service.NewItemService(itemRepo, movementRepo, auditRepo, txManager, log)
	salesService := service.NewSalesService(saleRepo, itemRepo, partyRepo, receiptRepo, movementRepo, auditRepo, txManager, wsHub, log)
	purchaseService := service.NewPurchaseService(purchaseRepo, itemRepo, partyRepo, movementRepo, auditRepo, txManager, wsHub, log)
	partyService := service.NewPartyService(partyRepo, saleRepo, purchaseRepo, receiptRepo, paymentRepo, auditRepo, txManager, log)
	settlementService := service.NewSettlementService(receiptRepo, paymentRepo, partyRepo, auditRepo, txManager, log)
	stocktakeService := service.NewStocktakeService(stocktakeRepo, itemRepo, movementRepo, auditRepo, txManager, log)
	expenseService := service.NewExpenseService(expenseRepo, partyRepo, auditRepo, txManager, log)
	reportService := service.NewReportService(db, expenseRepo)
	backupService := service.NewBackupService(db, auditRepo, txManager, log)
	auditService := service.NewAuditService(auditRepo)
	companyService := service.NewCompanyService(companyRepo, auditRepo, log)

	// Handlers
	handlers := []interface {
		RegisterRoutes(router *gin.RouterGroup)
	}{
		handler.NewUserHandler(userService),
		handler.NewItemHandler(itemService),
		handler.NewSalesHandler(salesService),
		handler.NewPurchaseHandler(purchaseService),
		handler.NewPartyHandler(partyService),
		handler.NewSettlementHandler(settlementService),
		handler.NewStocktakeHandler(stocktakeService),
		handler.NewExpenseHandler(expenseService),
		handler.NewReportHandler(reportService),
		handler.NewBackupHandler(backupService),
		handler.NewAuditHandler(auditService),
		handler.NewCompanyHandler(companyService),
	}

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	root := router.Group("")
	for _, h := range handlers {
		h.RegisterRoutes(root)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Info("server listening")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func buildDSN() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	host := get("DB_HOST", "localhost")
	port := get("DB_PORT", "5432")
	user := get("DB_USER", "postgres")
	password := get("DB_PASSWORD", "postgres")
	name := get("DB_NAME", "shopbooks")
	sslMode := get("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

func allowedOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range splitAndTrim(raw, ",") {
			if o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			return origins
		}
	}
	return []string{"http://localhost:5173", "http://127.0.0.1:5173"}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
