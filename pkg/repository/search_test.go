package repository_test

import (
	"testing"

	"github.com/sqlfleet/sql-inventory/pkg/api"
	"github.com/sqlfleet/sql-inventory/pkg/repository"
	"github.com/zeebo/assert"
)

func seedSearchFixture(t *testing.T) (repository.Storage, int) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-orders-01"))
	assert.Nil(t, err)

	snapshot := api.InstanceSnapshot{
		Status: api.StatusUp,
		Databases: []api.DatabaseInfo{
			{Name: "orders", Status: "ONLINE"},
			{Name: "warehouse", Status: "ONLINE"},
		},
	}
	assert.Nil(t, storage.SaveInstanceSnapshot(id, snapshot))

	orders, err := storage.GetDatabaseByName(id, "orders")
	assert.Nil(t, err)

	objects := api.DatabaseSnapshot{
		Tables: []api.TableInfo{
			{Schema: "dbo", Name: "order_lines"},
			{Schema: "dbo", Name: "customers"},
		},
		Procedures: []api.ProcedureInfo{
			{Schema: "dbo", Name: "usp_close_order"},
		},
	}
	assert.Nil(t, storage.SaveDatabaseSnapshot(orders.Id, objects))

	return storage, id
}

func TestSearchInventory(t *testing.T) {
	storage, _ := seedSearchFixture(t)

	results, err := storage.SearchInventory("order")
	assert.Nil(t, err)
	assert.NotNil(t, results)

	// Instance by name, database by name, table and procedure by name.
	assert.Equal(t, 1, len(results.Instances))
	assert.Equal(t, "prod-orders-01", results.Instances[0].Name)

	assert.Equal(t, 1, len(results.Databases))
	assert.Equal(t, "orders", results.Databases[0].Name)
	assert.Equal(t, "prod-orders-01", results.Databases[0].InstanceName)

	assert.Equal(t, 1, len(results.Tables))
	assert.Equal(t, "order_lines", results.Tables[0].Name)
	assert.Equal(t, "orders", results.Tables[0].DatabaseName)

	assert.Equal(t, 1, len(results.Procedures))
	assert.Equal(t, "usp_close_order", results.Procedures[0].Name)
}

func TestSearchInventoryNoMatches(t *testing.T) {
	storage, _ := seedSearchFixture(t)

	results, err := storage.SearchInventory("nonexistent")
	assert.Nil(t, err)
	assert.Equal(t, 0, len(results.Instances))
	assert.Equal(t, 0, len(results.Databases))
	assert.Equal(t, 0, len(results.Tables))
	assert.Equal(t, 0, len(results.Procedures))
}

// A database reached through several match paths shows up once.
func TestSearchInventoryDeduplicatesDatabases(t *testing.T) {
	storage, instanceId := seedSearchFixture(t)

	orders, err := storage.GetDatabaseByName(instanceId, "orders")
	assert.Nil(t, err)

	appId, err := storage.CreateApplication(api.NewApplicationRequest{Name: "order-entry"})
	assert.Nil(t, err)
	assert.Nil(t, storage.SetDatabaseApplications(orders.Id, []int{appId}))

	// "order" now matches the database name, the application tag, a table
	// and a procedure, all pointing at the same database.
	results, err := storage.SearchInventory("order")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(results.Databases))
}

// A database that only matches through its application tag still surfaces.
func TestSearchInventoryByApplication(t *testing.T) {
	storage, instanceId := seedSearchFixture(t)

	warehouse, err := storage.GetDatabaseByName(instanceId, "warehouse")
	assert.Nil(t, err)

	appId, err := storage.CreateApplication(api.NewApplicationRequest{Name: "fulfillment"})
	assert.Nil(t, err)
	assert.Nil(t, storage.SetDatabaseApplications(warehouse.Id, []int{appId}))

	results, err := storage.SearchInventory("fulfillment")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(results.Databases))
	assert.Equal(t, "warehouse", results.Databases[0].Name)
}

func TestSearchInventorySkipsDisabled(t *testing.T) {
	storage, instanceId := seedSearchFixture(t)

	request := api.DisableInstanceRequest{Reason: "retired", Type: "permanent"}
	assert.Nil(t, storage.DisableInstance(instanceId, request))

	results, err := storage.SearchInventory("order")
	assert.Nil(t, err)
	assert.Equal(t, 0, len(results.Instances))
	assert.Equal(t, 0, len(results.Databases))
	assert.Equal(t, 0, len(results.Tables))
	assert.Equal(t, 0, len(results.Procedures))
}
