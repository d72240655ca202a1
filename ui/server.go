package ui

import (
	"log"
	"net/http"
	"sync"

	"crmqc/adapters/excel"
	"crmqc/app"
	"crmqc/internal"
	"crmqc/internal/config"

	"github.com/gin-gonic/gin"
)

// Options configure the HTTP host
type Options struct {
	Defaults config.OperatorDefaults
	Excel    excel.ExcelConfig
	Logger   *internal.Logger // request log; nil uses internal.DefaultLogger
}

// Server exposes one SessionController over a JSON API. Handlers hold mu
// for the whole request since the controller is single-threaded.
type Server struct {
	router     *gin.Engine
	mu         sync.Mutex
	controller *app.SessionController
	options    Options
	logger     *internal.Logger

	// format of the last uploaded file, used as the default download format
	sourceType excel.FileType
	sourceName string
}

// NewServer creates a server around controller
func NewServer(controller *app.SessionController, options Options) *Server {
	logger := options.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:     gin.New(),
		controller: controller,
		options:    options,
		logger:     logger,
		sourceType: excel.FileTypeCSV,
		sourceName: "qc",
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the router for use with net/http or httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("[Server] Starting CRM QC API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.GET("/defaults", s.handleDefaults)

	api.POST("/session", s.handleLoad)
	api.GET("/session", s.handleSummary)
	api.GET("/history", s.handleHistory)
	api.GET("/report", s.handleReport)

	api.POST("/next", s.handleNext)
	api.POST("/previous", s.handlePrevious)
	api.POST("/commit", s.handleCommit)
	api.POST("/limits", s.handleApplyLimits)
	api.POST("/finalize", s.handleFinalize)

	cols := api.Group("/columns")
	cols.GET("", s.handleColumns)
	cols.GET("/:col", s.handleView)
	cols.POST("/:col/open", s.handleOpen)
	cols.PUT("/:col/cells/:row", s.handleEdit)
	cols.POST("/:col/fill", s.handleFill)
	cols.POST("/:col/duplicates/check", s.handleCheckDuplicates)
	cols.POST("/:col/duplicates/fix", s.handleFixDuplicates)
	cols.POST("/:col/crm/select", s.handleSelectReference)
	cols.POST("/:col/crm/compare", s.handleCompare)
	cols.POST("/:col/crm/fix", s.handleFixReference)
	cols.POST("/:col/crm/clear", s.handleClearReference)
	cols.POST("/:col/limits", s.handleApplyColumnLimits)
}
