package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/paysignal/internal/extraction"
	"github.com/smallbiznis/paysignal/internal/report"
	"github.com/smallbiznis/paysignal/pkg/db/pagination"
)

// dateQuery reads ?date=, defaulting to today in the business timezone.
func (s *Server) dateQuery(c *gin.Context) string {
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		return date
	}
	return s.clock.Now().In(s.loc).Format(extraction.DateLayout)
}

func (s *Server) ListTransactions(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	records, err := s.txs.ListByDate(c.Request.Context(), group.GroupID, s.dateQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) TransactionHistory(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	page, err := s.txs.History(c.Request.Context(), group.GroupID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": page.Transactions, "page_info": page.PageInfo})
}

func (s *Server) DailyReport(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	summary, err := s.txs.DailySummary(c.Request.Context(), group.GroupID, s.dateQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary, "text": report.Render(summary)})
}

func (s *Server) SummaryReport(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	summary, err := s.txs.AllTimeSummary(c.Request.Context(), group.GroupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}
