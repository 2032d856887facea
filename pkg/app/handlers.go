package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sqlfleet/sql-inventory/pkg/api"
)

func (s *Server) CreateInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		var newInstance api.NewInstanceRequest
		if err := c.BindJSON(&newInstance); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		instance, err := s.instanceService.New(newInstance)
		if err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if instance == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusCreated, instance)
	}
}

func (s *Server) DisableInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		var request api.DisableInstanceRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.instanceService.Disable(id, request); err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) ReactivateInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.instanceService.Reactivate(id); err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) GetInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		instance, err := s.instanceService.Get(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if instance == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}

func (s *Server) ListInstances() gin.HandlerFunc {
	return func(c *gin.Context) {
		list := s.instanceService.List
		if c.Query("disabled") == "true" {
			list = s.instanceService.ListDisabled
		}
		instances, err := list()
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, instances)
	}
}

func (s *Server) UpdateInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		var instance api.UpdateInstanceRequest

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := c.BindJSON(&instance); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.instanceService.Update(id, instance); err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) ProbeInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		result, err := s.instanceService.Probe(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) RefreshInstance() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		snapshot, err := s.instanceService.Refresh(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if snapshot == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}

func (s *Server) ListInstanceDatabases() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		databases, err := s.databaseService.ListInstance(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, databases)
	}
}

func (s *Server) ListInstanceLogins() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		logins, err := s.databaseService.ListLogins(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, logins)
	}
}

func (s *Server) GetDatabase() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		database, err := s.databaseService.Get(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if database == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, database)
	}
}

func (s *Server) RefreshDatabase() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		snapshot, err := s.databaseService.Refresh(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if snapshot == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}

func (s *Server) ListBackupHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		entries, err := s.databaseService.BackupHistory(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func (s *Server) ListTables() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		tables, err := s.databaseService.Tables(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tables)
	}
}

func (s *Server) ListIndexes() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		indexes, err := s.databaseService.Indexes(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, indexes)
	}
}

func (s *Server) ListProcedures() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		procedures, err := s.databaseService.Procedures(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, procedures)
	}
}

func (s *Server) ListDatabaseUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		users, err := s.databaseService.Users(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func (s *Server) Search() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := s.searchService.Search(c.Query("q"))
		if err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func (s *Server) ListApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		applications, err := s.applicationService.List()
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, applications)
	}
}

func (s *Server) CreateApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		var newApplication api.NewApplicationRequest
		if err := c.BindJSON(&newApplication); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		application, err := s.applicationService.New(newApplication)
		if err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, application)
	}
}

func (s *Server) GetApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		application, err := s.applicationService.Get(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		if application == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.JSON(http.StatusOK, application)
	}
}

func (s *Server) UpdateApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		var application api.UpdateApplicationRequest
		if err := c.BindJSON(&application); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.applicationService.Update(id, application); err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) DeleteApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.applicationService.Delete(id); err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) ListDatabaseApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		applications, err := s.databaseService.Applications(id)
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, applications)
	}
}

func (s *Server) SetDatabaseApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		var request api.SetApplicationsRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.databaseService.SetApplications(id, request.ApplicationIds); err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) SetInstanceApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		var request api.SetApplicationsRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if err := s.instanceService.SetApplications(id, request.ApplicationIds); err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) Tree() gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := s.instanceService.Tree()
		if err != nil {
			c.JSON(http.StatusExpectationFailed, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tree)
	}
}
