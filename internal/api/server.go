package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docsyard/drive-mirror/internal/catalog"
)

// Server is the read-only listing surface over the catalog. It never talks
// to the remote provider; it only serves what the sync job has published.
type Server struct {
	cat    *catalog.Catalog
	token  string
	logger *zap.Logger
}

func NewServer(cat *catalog.Catalog, token string, logger *zap.Logger) *Server {
	return &Server{cat: cat, token: token, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	if s.token != "" {
		api.Use(s.requireToken)
	}
	api.GET("/documents", s.listDocuments)
	api.GET("/documents/:remoteId", s.getDocument)
	api.GET("/runs", s.listRuns)
	return r
}

func (s *Server) requireToken(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if strings.TrimPrefix(auth, "Bearer ") != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

func (s *Server) listDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	docs, err := s.cat.ListDocuments(c.Query("category"), limit, offset)
	if err != nil {
		s.logger.Error("list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.cat.GetDocument(c.Param("remoteId"))
	if err != nil {
		s.logger.Error("get document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	runs, err := s.cat.RecentRuns(limit)
	if err != nil {
		s.logger.Error("list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}
