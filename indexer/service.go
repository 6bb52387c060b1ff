package indexer

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const DefaultPageSize = 20

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getGrants", s.handleGetGrants)
	s.engine.POST("/getDelegations", s.handleGetDelegations)
	s.engine.GET("/tally", s.handleGetTally)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

// PageReq selects one page of rows, newest first. Address filters by voter
// (for delegations: by voter or final delegate).
type PageReq struct {
	Address  string `json:"address"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

func bindPageReq(c *gin.Context) (req PageReq, ok bool) {
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Address != "" {
		if !common.IsHexAddress(req.Address) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
			return
		}
		req.Address = common.HexToAddress(req.Address).Hex()
	}
	if req.Page < 0 {
		req.Page = 0
	}
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	}
	return req, true
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	req, ok := bindPageReq(c)
	if !ok {
		return
	}
	votes, total, err := s.indexer.getVotes(req.Address, req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response := GetVotesResponse{Votes: make([]Vote, 0), Total: total}
	response.Votes = append(response.Votes, votes...)
	c.JSON(http.StatusOK, response)
}

type GetGrantsResponse struct {
	Grants []Grant `json:"grants"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetGrants(c *gin.Context) {
	req, ok := bindPageReq(c)
	if !ok {
		return
	}
	grants, total, err := s.indexer.getGrants(req.Address, req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response := GetGrantsResponse{Grants: make([]Grant, 0), Total: total}
	response.Grants = append(response.Grants, grants...)
	c.JSON(http.StatusOK, response)
}

type GetDelegationsResponse struct {
	Delegations []Delegation `json:"delegations"`
	Total       uint64       `json:"total"`
}

func (s *Service) handleGetDelegations(c *gin.Context) {
	req, ok := bindPageReq(c)
	if !ok {
		return
	}
	delegations, total, err := s.indexer.getDelegations(req.Address, req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response := GetDelegationsResponse{Delegations: make([]Delegation, 0), Total: total}
	response.Delegations = append(response.Delegations, delegations...)
	c.JSON(http.StatusOK, response)
}

type GetTallyResponse struct {
	Tally  []Tally `json:"tally"`
	Height uint64  `json:"height"`
}

func (s *Service) handleGetTally(c *gin.Context) {
	tally, err := s.indexer.getTally()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	height, err := s.indexer.indexedHeight()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response := GetTallyResponse{Tally: make([]Tally, 0), Height: height}
	response.Tally = append(response.Tally, tally...)
	c.JSON(http.StatusOK, response)
}
