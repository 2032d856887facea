package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Routes() *gin.Engine {
	router := s.router

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})
		v1.GET("/tree", s.Tree())
		v1.GET("/search", s.Search())
		instances := v1.Group("/instances")
		{
			// GET /instances?disabled=true lists the disabled set.
			instances.GET("", s.ListInstances())
			instances.POST("", s.CreateInstance())
			instances.GET("/:id", s.GetInstance())
			instances.PUT("/:id", s.UpdateInstance())
			instances.DELETE("/:id", s.DisableInstance())
			instances.POST("/:id/reactivate", s.ReactivateInstance())
			instances.POST("/:id/probe", s.ProbeInstance())
			instances.POST("/:id/refresh", s.RefreshInstance())
			instances.GET("/:id/databases", s.ListInstanceDatabases())
			instances.GET("/:id/logins", s.ListInstanceLogins())
			instances.PUT("/:id/applications", s.SetInstanceApplications())
		}
		databases := v1.Group("/databases")
		{
			databases.GET("/:id", s.GetDatabase())
			databases.POST("/:id/refresh", s.RefreshDatabase())
			databases.GET("/:id/backup-history", s.ListBackupHistory())
			databases.GET("/:id/tables", s.ListTables())
			databases.GET("/:id/indexes", s.ListIndexes())
			databases.GET("/:id/procedures", s.ListProcedures())
			databases.GET("/:id/users", s.ListDatabaseUsers())
			databases.GET("/:id/applications", s.ListDatabaseApplications())
			databases.PUT("/:id/applications", s.SetDatabaseApplications())
		}
		applications := v1.Group("/applications")
		{
			applications.GET("", s.ListApplications())
			applications.POST("", s.CreateApplication())
			applications.GET("/:id", s.GetApplication())
			applications.PUT("/:id", s.UpdateApplication())
			applications.DELETE("/:id", s.DeleteApplication())
		}
	}

	return router
}
