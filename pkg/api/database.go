package api

type DatabaseService interface {
	Applications(int) ([]Application, error)
	BackupHistory(int) ([]BackupEntry, error)
	Get(int) (*Database, error)
	Indexes(int) ([]Index, error)
	ListInstance(int) ([]Database, error)
	ListLogins(int) ([]Login, error)
	Procedures(int) ([]StoredProcedure, error)
	Refresh(int) (*DatabaseSnapshot, error)
	SetApplications(int, []int) error
	Tables(int) ([]Table, error)
	Users(int) ([]DatabaseUser, error)
}

type DatabaseRepository interface {
	GetDatabase(int) (*Database, error)
	GetInstance(int) (*Instance, error)
	ListBackupHistory(int) ([]BackupEntry, error)
	ListDatabaseApplications(int) ([]Application, error)
	ListDatabases(int) ([]Database, error)
	ListIndexes(int) ([]Index, error)
	ListLogins(int) ([]Login, error)
	ListProcedures(int) ([]StoredProcedure, error)
	ListTables(int) ([]Table, error)
	ListDatabaseUsers(int) ([]DatabaseUser, error)
	SaveDatabaseSnapshot(int, DatabaseSnapshot) error
	SetDatabaseApplications(int, []int) error
}

type databaseService struct {
	storage   DatabaseRepository
	harvester Harvester
}

func NewDatabaseService(repo DatabaseRepository, harvester Harvester) DatabaseService {
	return &databaseService{
		storage:   repo,
		harvester: harvester,
	}
}

func (s *databaseService) Applications(id int) ([]Application, error) {
	return s.storage.ListDatabaseApplications(id)
}

func (s *databaseService) BackupHistory(id int) ([]BackupEntry, error) {
	return s.storage.ListBackupHistory(id)
}

func (s *databaseService) Get(id int) (*Database, error) {
	return s.storage.GetDatabase(id)
}

func (s *databaseService) Indexes(id int) ([]Index, error) {
	return s.storage.ListIndexes(id)
}

func (s *databaseService) ListInstance(instanceId int) ([]Database, error) {
	return s.storage.ListDatabases(instanceId)
}

func (s *databaseService) ListLogins(instanceId int) ([]Login, error) {
	return s.storage.ListLogins(instanceId)
}

func (s *databaseService) Procedures(id int) ([]StoredProcedure, error) {
	return s.storage.ListProcedures(id)
}

// Refresh re-harvests the object inventory of a single database.
func (s *databaseService) Refresh(id int) (*DatabaseSnapshot, error) {
	database, err := s.storage.GetDatabase(id)
	if err != nil {
		return nil, err
	}
	if database == nil {
		return nil, nil
	}

	instance, err := s.storage.GetInstance(database.InstanceId)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsActive {
		return nil, nil
	}

	snapshot := s.harvester.HarvestDatabase(*instance, database.Name)
	if err := s.storage.SaveDatabaseSnapshot(id, snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

func (s *databaseService) SetApplications(id int, applicationIds []int) error {
	return s.storage.SetDatabaseApplications(id, applicationIds)
}

func (s *databaseService) Tables(id int) ([]Table, error) {
	return s.storage.ListTables(id)
}

func (s *databaseService) Users(id int) ([]DatabaseUser, error) {
	return s.storage.ListDatabaseUsers(id)
}
