package api_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sqlfleet/sql-inventory/pkg/api"
	"github.com/zeebo/assert"
)

type fakeRepository struct {
	instances map[int]api.Instance
	databases map[string]api.Database // keyed by name, one instance in play

	created          []api.NewInstanceRequest
	statusUpdates    []string
	savedInstance    *api.InstanceSnapshot
	savedDatabases   map[int]api.DatabaseSnapshot
	failInstanceSave bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		instances:      make(map[int]api.Instance),
		databases:      make(map[string]api.Database),
		savedDatabases: make(map[int]api.DatabaseSnapshot),
	}
}

func (f *fakeRepository) CreateInstance(r api.NewInstanceRequest) (int, error) {
	f.created = append(f.created, r)
	id := len(f.created)
	f.instances[id] = api.Instance{Id: id, Name: r.Name, AuthPassword: r.AuthPassword, IsActive: true}
	return id, nil
}

func (f *fakeRepository) DisableInstance(id int, r api.DisableInstanceRequest) error {
	instance, ok := f.instances[id]
	if !ok {
		return nil
	}
	instance.IsActive = false
	instance.DisabledReason = &r.Reason
	instance.DisabledType = &r.Type
	f.instances[id] = instance
	return nil
}

func (f *fakeRepository) ReactivateInstance(id int) error {
	instance, ok := f.instances[id]
	if !ok {
		return nil
	}
	instance.IsActive = true
	instance.DisabledReason = nil
	instance.DisabledType = nil
	f.instances[id] = instance
	return nil
}

func (f *fakeRepository) ListDisabledInstances() ([]api.Instance, error) { return nil, nil }

func (f *fakeRepository) SetInstanceApplications(int, []int) error { return nil }

func (f *fakeRepository) GetInstance(id int) (*api.Instance, error) {
	instance, ok := f.instances[id]
	if !ok {
		return nil, nil
	}
	return &instance, nil
}

func (f *fakeRepository) GetDatabaseByName(id int, name string) (*api.Database, error) {
	database, ok := f.databases[name]
	if !ok {
		return nil, nil
	}
	return &database, nil
}

func (f *fakeRepository) InstanceTree() ([]api.Tree, error) { return nil, nil }

func (f *fakeRepository) ListInstances() ([]api.Instance, error) { return nil, nil }

func (f *fakeRepository) SaveInstanceSnapshot(id int, snapshot api.InstanceSnapshot) error {
	if f.failInstanceSave {
		return errors.New("constraint violation")
	}
	f.savedInstance = &snapshot
	// Mirror the reconciler: a database shows up once its snapshot is saved.
	for i, database := range snapshot.Databases {
		if _, ok := f.databases[database.Name]; !ok {
			f.databases[database.Name] = api.Database{Id: 100 + i, InstanceId: id, Name: database.Name}
		}
	}
	return nil
}

func (f *fakeRepository) SaveDatabaseSnapshot(id int, snapshot api.DatabaseSnapshot) error {
	f.savedDatabases[id] = snapshot
	return nil
}

func (f *fakeRepository) UpdateInstance(id int, r api.UpdateInstanceRequest) error { return nil }

func (f *fakeRepository) UpdateInstanceStatus(id int, status string, lastError *string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeHarvester struct {
	probe     api.ProbeResult
	instance  api.InstanceSnapshot
	databases map[string]api.DatabaseSnapshot
}

func (f *fakeHarvester) Probe(api.Instance) api.ProbeResult { return f.probe }

func (f *fakeHarvester) HarvestInstance(api.Instance) api.InstanceSnapshot { return f.instance }

func (f *fakeHarvester) HarvestDatabase(_ api.Instance, name string) api.DatabaseSnapshot {
	return f.databases[name]
}

func testVault(t *testing.T) *api.Vault {
	vault, err := api.NewVault(testKey)
	assert.Nil(t, err)
	return vault
}

func TestInstanceServiceNewEncryptsPassword(t *testing.T) {
	repo := newFakeRepository()
	service := api.NewInstanceService(repo, &fakeHarvester{}, testVault(t))

	_, err := service.New(api.NewInstanceRequest{
		Name:         "prod-sql-01",
		Environment:  "Production",
		Host:         "10.0.0.5",
		Port:         1433,
		AuthUsername: "sa",
		AuthPassword: "hunter2",
	})
	assert.Nil(t, err)

	assert.Equal(t, 1, len(repo.created))
	stored := repo.created[0].AuthPassword
	assert.That(t, stored != "hunter2")
	assert.That(t, strings.Contains(stored, ":"))
}

func TestInstanceServiceValidation(t *testing.T) {
	service := api.NewInstanceService(newFakeRepository(), &fakeHarvester{}, testVault(t))

	// Missing name, missing host, missing port, unknown environment.
	cases := []api.NewInstanceRequest{
		{Environment: "Production", Host: "h", Port: 1433},
		{Name: "x", Environment: "Production", Port: 1433},
		{Name: "x", Environment: "Production", Host: "h"},
		{Name: "x", Environment: "Staging", Host: "h", Port: 1433},
	}

	for _, request := range cases {
		_, err := service.New(request)
		assert.NotNil(t, err)
	}
}

func TestInstanceServiceProbeRecordsStatus(t *testing.T) {
	repo := newFakeRepository()
	repo.instances[1] = api.Instance{Id: 1, Name: "prod-sql-01", IsActive: true}

	msg := "dial tcp 10.0.0.5:1433: i/o timeout"
	harvester := &fakeHarvester{probe: api.ProbeResult{Status: api.StatusDown, Error: &msg}}
	service := api.NewInstanceService(repo, harvester, testVault(t))

	result, err := service.Probe(1)
	assert.Nil(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, api.StatusDown, result.Status)
	assert.DeepEqual(t, []string{api.StatusDown}, repo.statusUpdates)
}

func TestInstanceServiceProbeMissing(t *testing.T) {
	service := api.NewInstanceService(newFakeRepository(), &fakeHarvester{}, testVault(t))

	result, err := service.Probe(42)
	assert.Nil(t, err)
	assert.Nil(t, result)
}

func TestInstanceServiceRefresh(t *testing.T) {
	repo := newFakeRepository()
	repo.instances[1] = api.Instance{Id: 1, Name: "prod-sql-01", IsActive: true}

	errMsg := "login failed"
	harvester := &fakeHarvester{
		instance: api.InstanceSnapshot{
			Status: api.StatusUp,
			Databases: []api.DatabaseInfo{
				{Name: "orders"},
				{Name: "billing"},
			},
		},
		databases: map[string]api.DatabaseSnapshot{
			"orders":  {Tables: []api.TableInfo{{Schema: "dbo", Name: "orders"}}},
			"billing": {Error: &errMsg},
		},
	}
	service := api.NewInstanceService(repo, harvester, testVault(t))

	snapshot, err := service.Refresh(1)
	assert.Nil(t, err)
	assert.NotNil(t, snapshot)

	// The instance snapshot landed and both databases got their object
	// snapshots saved, the degraded one included.
	assert.NotNil(t, repo.savedInstance)
	assert.Equal(t, 2, len(repo.savedDatabases))
}

func TestInstanceServiceDisableValidation(t *testing.T) {
	repo := newFakeRepository()
	repo.instances[1] = api.Instance{Id: 1, Name: "prod-sql-01", IsActive: true}
	service := api.NewInstanceService(repo, &fakeHarvester{}, testVault(t))

	err := service.Disable(1, api.DisableInstanceRequest{Type: "permanent"})
	assert.NotNil(t, err)

	err = service.Disable(1, api.DisableInstanceRequest{Reason: "retired", Type: "forever"})
	assert.NotNil(t, err)

	err = service.Disable(1, api.DisableInstanceRequest{Reason: "retired", Type: "permanent"})
	assert.Nil(t, err)
	assert.False(t, repo.instances[1].IsActive)
}

// Disabled instances are not probed or harvested; both calls report not
// found without touching the harvester.
func TestInstanceServiceSkipsDisabled(t *testing.T) {
	repo := newFakeRepository()
	repo.instances[1] = api.Instance{Id: 1, Name: "prod-sql-01", IsActive: true}
	service := api.NewInstanceService(repo, &fakeHarvester{}, testVault(t))

	err := service.Disable(1, api.DisableInstanceRequest{Reason: "maintenance", Type: "temporary"})
	assert.Nil(t, err)

	result, err := service.Probe(1)
	assert.Nil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, len(repo.statusUpdates))

	snapshot, err := service.Refresh(1)
	assert.Nil(t, err)
	assert.Nil(t, snapshot)
	assert.Nil(t, repo.savedInstance)

	assert.Nil(t, service.Reactivate(1))

	result, err = service.Probe(1)
	assert.Nil(t, err)
	assert.NotNil(t, result)
}

func TestInstanceServiceRefreshPersistenceError(t *testing.T) {
	repo := newFakeRepository()
	repo.instances[1] = api.Instance{Id: 1, Name: "prod-sql-01", IsActive: true}
	repo.failInstanceSave = true

	service := api.NewInstanceService(repo, &fakeHarvester{}, testVault(t))

	_, err := service.Refresh(1)
	assert.NotNil(t, err)
}
