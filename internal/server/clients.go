package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
)

type createClientRequest struct {
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Plan        string `json:"plan"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenants.CreateClient(c.Request.Context(), tenantdomain.CreateClientRequest{
		Email:       strings.TrimSpace(req.Email),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Plan:        strings.TrimSpace(req.Plan),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type accountResponse struct {
	ClientID            string            `json:"client_id"`
	Email               string            `json:"email"`
	CompanyName         string            `json:"company_name"`
	Status              string            `json:"status"`
	MonthlyTransactions int               `json:"monthly_transactions"`
	Plan                tenantdomain.Plan `json:"plan"`
}

func (s *Server) GetAccount(c *gin.Context) {
	client := clientFromContext(c)
	if client == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	plan, _ := tenantdomain.LookupPlan(client.Plan)
	c.JSON(http.StatusOK, gin.H{"data": accountResponse{
		ClientID:            client.ID,
		Email:               client.Email,
		CompanyName:         client.CompanyName,
		Status:              client.Status,
		MonthlyTransactions: client.MonthlyTransactions,
		Plan:                plan,
	}})
}

type addGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

func (s *Server) AddGroup(c *gin.Context) {
	client := clientFromContext(c)
	if client == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req addGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	group, err := s.tenants.AddGroup(c.Request.Context(), client.ID, tenantdomain.AddGroupRequest{
		GroupID: req.GroupID,
		Name:    req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": group})
}
