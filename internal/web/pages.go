package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scholarhub/internal/export"
	"scholarhub/internal/views"
)

func (s *Server) render(c *gin.Context, status int, p views.Page) {
	p.Nav = views.Navigation()
	c.HTML(status, "page", p)
}

func (s *Server) dashboardPage(c *gin.Context) {
	s.render(c, http.StatusOK, views.Page{
		Title:         "Dashboard",
		Active:        "dashboard",
		Fragment:      "/fragments/dashboard",
		FailureBanner: "Failed to load dashboard. Please try again later.",
	})
}

func (s *Server) listPage(v views.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		fragment := "/fragments/" + v.Name
		if raw := c.Request.URL.RawQuery; raw != "" {
			fragment += "?" + raw
		}
		s.render(c, http.StatusOK, views.Page{
			Title:         v.Title,
			Active:        v.Name,
			Fragment:      fragment,
			FailureBanner: v.FailureBanner(),
			Search:        c.Query("q"),
		})
	}
}

func (s *Server) studentPage(c *gin.Context) {
	s.render(c, http.StatusOK, views.Page{
		Title:         "Student Details",
		Active:        "students",
		Fragment:      "/fragments/students/" + url.PathEscape(c.Param("id")),
		FailureBanner: "Failed to load student details. Please try again later.",
	})
}

func (s *Server) chatPage(c *gin.Context) {
	s.render(c, http.StatusOK, views.Page{
		Title:    "Chat Assistant",
		Active:   "chat",
		FullChat: true,
	})
}

func (s *Server) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found", views.Page{
		Title: "Page not found",
		Nav:   views.Navigation(),
	})
}

func (s *Server) createStudent(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "adding students is not supported"})
}

func (s *Server) dashboardFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "fragment", s.catalog.Dashboard(c.Request.Context()))
}

func (s *Server) studentFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "fragment", s.catalog.Student(c.Request.Context(), c.Param("id")))
}

func (s *Server) listFragment(c *gin.Context) {
	m, err := s.catalog.List(c.Request.Context(), c.Param("view"), parseQuery(c))
	if errors.Is(err, views.ErrUnknownView) {
		c.String(http.StatusNotFound, "unknown view")
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadGateway, "fragment unavailable")
		return
	}
	c.HTML(http.StatusOK, "fragment", m)
}

func (s *Server) export(c *gin.Context) {
	file := c.Param("file")
	name, ok := strings.CutSuffix(file, ".xlsx")
	if !ok {
		c.String(http.StatusNotFound, "unknown export")
		return
	}
	v, err := views.Lookup(name)
	if err != nil {
		c.String(http.StatusNotFound, "unknown export")
		return
	}

	table, err := s.catalog.Table(c.Request.Context(), v.Name, parseQuery(c))
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadGateway, "export unavailable")
		return
	}
	buf, err := export.XLSX(v.Title, table)
	if err != nil {
		s.log.Error("export workbook", zap.String("view", v.Name), zap.Error(err))
		c.String(http.StatusInternalServerError, "export failed")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(file))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// parseQuery reads page and q. A missing or malformed page is page 1;
// out-of-range pages are clamped by the catalog.
func parseQuery(c *gin.Context) views.Query {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	return views.Query{Page: page, Q: strings.TrimSpace(c.Query("q"))}
}
