package app

import (
	"github.com/gin-gonic/gin"
	"github.com/sqlfleet/sql-inventory/pkg/api"
)

type Server struct {
	router             *gin.Engine
	instanceService    api.InstanceService
	databaseService    api.DatabaseService
	applicationService api.ApplicationService
	searchService      api.SearchService
}

func NewServer(
	router *gin.Engine,
	instanceService api.InstanceService,
	databaseService api.DatabaseService,
	applicationService api.ApplicationService,
	searchService api.SearchService,
) *Server {
	return &Server{
		router:             router,
		instanceService:    instanceService,
		databaseService:    databaseService,
		applicationService: applicationService,
		searchService:      searchService,
	}
}

func (s *Server) Run(listenAddress string) error {
	r := s.Routes()
	return r.Run(listenAddress)
}
