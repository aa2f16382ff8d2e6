package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fussionbart/BigBrother/internal/version"
)

// StartScanRequest is the POST /api/scans body.
type StartScanRequest struct {
	Targets  []string `json:"targets" binding:"required"`
	Threads  int      `json:"threads,omitempty"`
	Resolver string   `json:"resolver,omitempty"`
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version.Short()})
}

// handleListScans merges in-memory scans with persisted history.
func (s *Server) handleListScans(c *gin.Context) {
	active := s.scanMgr.List()

	var history interface{}
	if store := s.scanMgr.Store(); store != nil {
		if records, err := store.ListScans(50); err == nil {
			history = records
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"active":  active,
		"history": history,
	})
}

func (s *Server) handleGetScan(c *gin.Context) {
	id := c.Param("id")

	if scan, ok := s.scanMgr.Get(id); ok {
		c.JSON(http.StatusOK, scan)
		return
	}
	if store := s.scanMgr.Store(); store != nil {
		if record, err := store.GetScan(id); err == nil {
			c.JSON(http.StatusOK, record)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
}

func (s *Server) handleScanResults(c *gin.Context) {
	store := s.scanMgr.Store()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan history disabled"})
		return
	}
	results, err := store.ScanResults(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleStartScan(c *gin.Context) {
	var req StartScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scan, err := s.scanMgr.StartScan(req.Targets, req.Threads, req.Resolver)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, scan)
}

func (s *Server) handleCancelScan(c *gin.Context) {
	if !s.scanMgr.Cancel(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running scan with that id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}
