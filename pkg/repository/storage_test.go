package repository_test

import (
	"database/sql"
	"testing"

	"github.com/sqlfleet/sql-inventory/pkg/api"
	"github.com/sqlfleet/sql-inventory/pkg/repository"
	"github.com/zeebo/assert"

	_ "github.com/mattn/go-sqlite3"
)

func testStorage(t *testing.T) repository.Storage {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	storage := repository.NewStorage(db)
	assert.Nil(t, storage.RunMigrations())
	return storage
}

func newInstanceRequest(name string) api.NewInstanceRequest {
	return api.NewInstanceRequest{
		Name:         name,
		Environment:  "Production",
		Host:         "10.0.0.5",
		Port:         1433,
		AuthUsername: "sa",
		AuthPassword: "00112233445566778899aabbccddeeff:5ca1ab1edeadbeef",
		Description:  "primary",
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.Nil(t, err)
	defer db.Close()

	storage := repository.NewStorage(db)
	assert.Nil(t, storage.RunMigrations())
	assert.Nil(t, storage.RunMigrations())
}

func TestCreateAndGetInstance(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-sql-01"))
	assert.Nil(t, err)
	assert.Equal(t, 1, id)

	instance, err := storage.GetInstance(id)
	assert.Nil(t, err)
	assert.NotNil(t, instance)
	assert.Equal(t, "prod-sql-01", instance.Name)
	assert.Equal(t, "Production", instance.Environment)
	assert.Equal(t, "10.0.0.5", instance.Host)
	assert.Equal(t, 1433, instance.Port)
	assert.Equal(t, api.StatusUnknown, instance.LastStatus)
	assert.True(t, instance.IsActive)
	assert.Nil(t, instance.DisabledReason)
	assert.Nil(t, instance.Version)
	assert.Nil(t, instance.LastCheckedAt)
}

func TestGetInstanceMissing(t *testing.T) {
	storage := testStorage(t)

	instance, err := storage.GetInstance(42)
	assert.Nil(t, err)
	assert.Nil(t, instance)
}

func TestCreateInstanceEnvironmentCheck(t *testing.T) {
	storage := testStorage(t)

	request := newInstanceRequest("prod-sql-01")
	request.Environment = "Staging"
	_, err := storage.CreateInstance(request)
	assert.NotNil(t, err)
}

func TestListInstancesOrdered(t *testing.T) {
	storage := testStorage(t)

	for _, name := range []string{"zulu", "alpha", "mike"} {
		_, err := storage.CreateInstance(newInstanceRequest(name))
		assert.Nil(t, err)
	}

	instances, err := storage.ListInstances()
	assert.Nil(t, err)
	assert.Equal(t, 3, len(instances))
	assert.Equal(t, "alpha", instances[0].Name)
	assert.Equal(t, "mike", instances[1].Name)
	assert.Equal(t, "zulu", instances[2].Name)
}

func TestUpdateInstanceKeepsCredential(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-sql-01"))
	assert.Nil(t, err)

	update := api.UpdateInstanceRequest{
		Name:         "prod-sql-01b",
		Environment:  "QA",
		Host:         "10.0.0.6",
		Port:         1434,
		AuthUsername: "inventory",
	}
	assert.Nil(t, storage.UpdateInstance(id, update))

	instance, err := storage.GetInstance(id)
	assert.Nil(t, err)
	assert.Equal(t, "prod-sql-01b", instance.Name)
	assert.Equal(t, "QA", instance.Environment)
	assert.Equal(t, 1434, instance.Port)
	assert.Equal(t, newInstanceRequest("x").AuthPassword, instance.AuthPassword)

	update.AuthPassword = "ffeeddccbbaa99887766554433221100:deadbeef"
	assert.Nil(t, storage.UpdateInstance(id, update))

	instance, err = storage.GetInstance(id)
	assert.Nil(t, err)
	assert.Equal(t, update.AuthPassword, instance.AuthPassword)
}

// Disabling keeps the record and everything harvested from it; only the
// active listing changes.
func TestDisableInstance(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-sql-01"))
	assert.Nil(t, err)

	snapshot := api.InstanceSnapshot{
		Status: api.StatusUp,
		Databases: []api.DatabaseInfo{
			{Name: "orders", Status: "ONLINE"},
		},
		Logins: []api.LoginInfo{{Name: "sa", Type: "SQL_LOGIN"}},
	}
	assert.Nil(t, storage.SaveInstanceSnapshot(id, snapshot))

	request := api.DisableInstanceRequest{Reason: "decommissioned host", Type: "permanent"}
	assert.Nil(t, storage.DisableInstance(id, request))

	instance, err := storage.GetInstance(id)
	assert.Nil(t, err)
	assert.NotNil(t, instance)
	assert.False(t, instance.IsActive)
	assert.Equal(t, "decommissioned host", *instance.DisabledReason)
	assert.Equal(t, "permanent", *instance.DisabledType)
	assert.NotNil(t, instance.DisabledAt)

	active, err := storage.ListInstances()
	assert.Nil(t, err)
	assert.Equal(t, 0, len(active))

	disabled, err := storage.ListDisabledInstances()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(disabled))
	assert.Equal(t, "prod-sql-01", disabled[0].Name)

	// Harvested rows survive the disable.
	databases, err := storage.ListDatabases(id)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(databases))

	logins, err := storage.ListLogins(id)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(logins))
}

func TestReactivateInstance(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-sql-01"))
	assert.Nil(t, err)

	request := api.DisableInstanceRequest{Reason: "maintenance window", Type: "temporary"}
	assert.Nil(t, storage.DisableInstance(id, request))
	assert.Nil(t, storage.ReactivateInstance(id))

	instance, err := storage.GetInstance(id)
	assert.Nil(t, err)
	assert.True(t, instance.IsActive)
	assert.Nil(t, instance.DisabledReason)
	assert.Nil(t, instance.DisabledType)
	assert.Nil(t, instance.DisabledAt)

	active, err := storage.ListInstances()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(active))

	disabled, err := storage.ListDisabledInstances()
	assert.Nil(t, err)
	assert.Equal(t, 0, len(disabled))
}

func TestInstanceTree(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.CreateInstance(newInstanceRequest("prod-sql-01"))
	assert.Nil(t, err)

	snapshot := api.InstanceSnapshot{
		Status: api.StatusUp,
		Databases: []api.DatabaseInfo{
			{Name: "orders", Status: "ONLINE"},
			{Name: "billing", Status: "ONLINE"},
		},
	}
	assert.Nil(t, storage.SaveInstanceSnapshot(id, snapshot))

	trees, err := storage.InstanceTree()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(trees))
	assert.Equal(t, "prod-sql-01", trees[0].Instance.Name)
	assert.Equal(t, 2, len(trees[0].Databases))
	assert.Equal(t, "billing", trees[0].Databases[0].Name)
	assert.Equal(t, "orders", trees[0].Databases[1].Name)
}
