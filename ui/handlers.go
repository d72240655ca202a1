package ui

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"crmqc/adapters/excel"
	"crmqc/domain/grid"
	"crmqc/domain/qc"
	"crmqc/internal/report"

	"github.com/gin-gonic/gin"
)

type loadRequest struct {
	Grid grid.Grid `json:"grid" binding:"required"`
}

type editRequest struct {
	Value grid.Cell `json:"value"`
}

type checkRequest struct {
	Rows  []int    `json:"rows"`
	Range *float64 `json:"range"`
}

type fixDuplicatesRequest struct {
	Rows     []int    `json:"rows"`
	Outliers []int    `json:"outliers"` // omitted: use the last check's outliers
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

type selectRequest struct {
	Rows []int `json:"rows"`
}

type compareRequest struct {
	Range *float64 `json:"range"`
	Value *float64 `json:"value"`
}

func (s *Server) handleDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.options.Defaults)
}

// handleLoad accepts a multipart "file" upload (csv or xlsx) or a JSON grid
func (s *Server) handleLoad(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		raw      grid.Grid
		fileType = excel.FileTypeCSV
		name     = "qc"
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "missing file upload")
			return
		}
		file, err := header.Open()
		if err != nil {
			badRequest(c, "cannot open upload")
			return
		}
		defer file.Close()

		fileType = excel.DetectFileType(header.Filename)
		name = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
		raw, err = excel.ReadFrom(c.Request.Context(), file, fileType, s.options.Excel)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
	} else {
		var req loadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		raw = req.Grid
	}

	if err := s.controller.Load(raw); err != nil {
		respondError(c, err)
		return
	}
	s.sourceType, s.sourceName = fileType, name

	summary, err := s.controller.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("[API] Loaded %s (%s) as session %s", name, fileType, summary.ID)
	c.JSON(http.StatusCreated, summary)
}

func (s *Server) handleSummary(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.controller.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleHistory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.controller.History()
	c.JSON(http.StatusOK, gin.H{
		"events": history,
		"count":  len(history),
	})
}

// handleReport renders the session report; ?format=html for a full page
func (s *Server) handleReport(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := report.Build(s.controller)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.DefaultQuery("format", "md") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", r.HTML())
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", r.Markdown())
}

func (s *Server) handleColumns(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, err := s.controller.Columns()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":    s.controller.Mode(),
		"cursor":  s.controller.Cursor(),
		"columns": cols,
	})
}

func (s *Server) handleView(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondView(c, col)
}

func (s *Server) respondView(c *gin.Context, col int) {
	view, err := s.controller.View(col)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleOpen(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.controller.OpenColumn(col)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleNext(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.controller.Next()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) handlePrevious(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.controller.Previous()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) handleCommit(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.controller.Commit(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"committed": s.controller.Cursor()})
}

func (s *Server) handleEdit(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	row, ok := intParam(c, "row")
	if !ok {
		return
	}
	var req editRequest
	if !bindOptional(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.controller.RecordEdit(col, row, req.Value); err != nil {
		respondError(c, err)
		return
	}
	s.respondView(c, col)
}

func (s *Server) handleFill(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	params := s.options.Defaults.Fill
	if !bindOptional(c, &params) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.controller.FillEmpty(col, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

func (s *Server) handleCheckDuplicates(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	var req checkRequest
	if !bindOptional(c, &req) {
		return
	}
	rangeFraction := s.options.Defaults.DuplicateRange
	if req.Range != nil {
		rangeFraction = *req.Range
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	classes, err := s.controller.CheckDuplicates(col, req.Rows, rangeFraction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classifications": classes, "range": rangeFraction})
}

func (s *Server) handleFixDuplicates(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	var req fixDuplicatesRequest
	if !bindOptional(c, &req) {
		return
	}
	params := s.options.Defaults.DuplicateFix
	if req.Min != nil {
		params.Min = *req.Min
	}
	if req.Max != nil {
		params.Max = *req.Max
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	written, err := s.controller.FixDuplicates(col, req.Rows, req.Outliers, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": written, "count": len(written)})
}

func (s *Server) handleSelectReference(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	var req selectRequest
	if !bindOptional(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.controller.SelectReferenceRow(col, req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"row": row})
}

func (s *Server) handleCompare(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	var req compareRequest
	if !bindOptional(c, &req) {
		return
	}
	rangeFraction := s.options.Defaults.CrmRange
	if req.Range != nil {
		rangeFraction = *req.Range
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.controller.CompareWithReference(col, rangeFraction, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFixReference(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.controller.FixReferenceDifference(col)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleClearReference(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.controller.ClearReference(col); err != nil {
		respondError(c, err)
		return
	}
	s.respondView(c, col)
}

func (s *Server) handleApplyLimits(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.controller.ApplyLimits()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, limitResponse(result))
}

func (s *Server) handleApplyColumnLimits(c *gin.Context) {
	col, ok := intParam(c, "col")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.controller.ApplyColumnLimits(col)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, limitResponse(result))
}

func limitResponse(result qc.LimitResult) gin.H {
	return gin.H{
		"columns": result.Columns,
		"skipped": result.Skipped,
		"total":   result.Total(),
	}
}

// handleFinalize streams the merged grid; ?format=csv|xlsx overrides the
// format of the uploaded file.
func (s *Server) handleFinalize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileType := s.sourceType
	switch c.Query("format") {
	case "":
	case string(excel.FileTypeCSV):
		fileType = excel.FileTypeCSV
	case string(excel.FileTypeXLSX):
		fileType = excel.FileTypeXLSX
	default:
		badRequest(c, "format must be csv or xlsx")
		return
	}

	out, err := s.controller.Finalize()
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteTo(c.Request.Context(), &buf, fileType, s.options.Excel, out); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("%s_qc.%s", s.sourceName, fileType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, fileType.ContentType(), buf.Bytes())
}
