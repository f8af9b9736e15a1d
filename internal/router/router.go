package router

import (
	"icomag/internal/audit"
	"icomag/internal/blob"
	"icomag/internal/config"
	"icomag/internal/handler"
	"icomag/internal/importer"
	"icomag/internal/lpg"
	"icomag/internal/middleware"
	"icomag/internal/patterns"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SetupRouter wires the gin engine: public auth routes, authenticated reads
// and admin-only mutations.
func SetupRouter(cfg *config.Config, db *gorm.DB, log zerolog.Logger, store *blob.Store) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	recorder := audit.NewRecorder(db, log)
	patternSvc := patterns.NewService(db, log, cfg.App.PatternChunkSize)
	reconciler := importer.NewReconciler(db, log)
	lpgSvc := lpg.NewService(db, log)

	authHandler := handler.NewAuthHandler(db, recorder, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	ownerHandler := handler.NewOwnerHandler(db, recorder, patternSvc)
	tagHandler := handler.NewTagHandler(db, recorder, patternSvc)
	txnHandler := handler.NewTransactionHandler(db, recorder, cfg.App.PageSize)
	batchHandler := handler.NewBatchHandler(db, recorder, reconciler)
	lpgHandler := handler.NewLpgHandler(db, recorder, lpgSvc)
	balanceHandler := handler.NewBalanceHandler(db, recorder)
	logHandler := handler.NewLogHandler(db, cfg.App.PageSize)
	exportHandler := handler.NewExportHandler(db)

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	// signed-in staff: read access
	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWT.Secret, db))

	protected.POST("/auth/logout", authHandler.Logout)

	protected.GET("/owners", ownerHandler.List)
	protected.GET("/owners/:id", ownerHandler.Get)
	protected.GET("/tags", tagHandler.List)
	protected.GET("/tags/:id/transactions", tagHandler.Transactions)
	protected.GET("/transactions", txnHandler.List)
	protected.GET("/transactions/:id", txnHandler.Get)
	protected.GET("/batches", batchHandler.List)
	protected.GET("/lpg/refills", lpgHandler.List)
	protected.GET("/lpg/refills/:id", lpgHandler.Get)
	protected.GET("/lpg/refills/:id/pending", lpgHandler.Pending)
	protected.GET("/lpg/pending", lpgHandler.PendingAll)
	protected.GET("/balance", balanceHandler.Estimate)
	protected.GET("/logs", logHandler.List)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	// mutations: administrators only
	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())

	admin.POST("/owners", ownerHandler.Create)
	admin.PUT("/owners/:id", ownerHandler.Update)
	admin.DELETE("/owners/:id", ownerHandler.Delete)
	admin.POST("/owners/:id/patterns", ownerHandler.CreatePattern)
	admin.POST("/owners/:id/patterns/:patternId/toggle", ownerHandler.TogglePattern)
	admin.DELETE("/owners/:id/patterns/:patternId", ownerHandler.DeletePattern)

	admin.POST("/tags", tagHandler.Create)
	admin.PUT("/tags/:id", tagHandler.Update)
	admin.DELETE("/tags/:id", tagHandler.Delete)
	admin.POST("/tags/:id/patterns", tagHandler.CreatePattern)
	admin.POST("/tags/:id/patterns/:patternId/toggle", tagHandler.TogglePattern)
	admin.DELETE("/tags/:id/patterns/:patternId", tagHandler.DeletePattern)

	admin.POST("/transactions", txnHandler.Create)
	admin.PUT("/transactions/:id", txnHandler.Update)
	admin.POST("/batches/import", batchHandler.Import)
	admin.DELETE("/batches/:id", batchHandler.Delete)

	admin.POST("/lpg/refills", lpgHandler.Create)
	admin.DELETE("/lpg/refills/:id", lpgHandler.Delete)

	admin.PUT("/balance/checkpoint", balanceHandler.SetCheckpoint)

	if store != nil {
		attachmentHandler := handler.NewAttachmentHandler(store, recorder)
		protected.GET("/attachments/:id/url", attachmentHandler.URL)
		admin.POST("/attachments", attachmentHandler.Upload)
		admin.DELETE("/attachments/:id", attachmentHandler.Delete)
	}

	return r
}
