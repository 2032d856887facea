package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

type Storage interface {
	CreateApplication(api.NewApplicationRequest) (int, error)
	CreateInstance(api.NewInstanceRequest) (int, error)
	DeleteApplication(int) error
	DisableInstance(int, api.DisableInstanceRequest) error
	GetApplication(int) (*api.Application, error)
	GetDatabase(int) (*api.Database, error)
	GetDatabaseByName(int, string) (*api.Database, error)
	GetInstance(int) (*api.Instance, error)
	InstanceTree() ([]api.Tree, error)
	ListApplicationDatabases(int) ([]api.Database, error)
	ListApplicationInstances(int) ([]api.Instance, error)
	ListApplications() ([]api.Application, error)
	ListBackupHistory(int) ([]api.BackupEntry, error)
	ListDatabaseApplications(int) ([]api.Application, error)
	ListDatabases(int) ([]api.Database, error)
	ListDatabaseUsers(int) ([]api.DatabaseUser, error)
	ListDisabledInstances() ([]api.Instance, error)
	ListIndexes(int) ([]api.Index, error)
	ListInstances() ([]api.Instance, error)
	ListLogins(int) ([]api.Login, error)
	ListProcedures(int) ([]api.StoredProcedure, error)
	ListTables(int) ([]api.Table, error)
	ReactivateInstance(int) error
	RunMigrations() error
	SaveDatabaseSnapshot(int, api.DatabaseSnapshot) error
	SaveInstanceSnapshot(int, api.InstanceSnapshot) error
	SearchInventory(string) (*api.SearchResults, error)
	SetDatabaseApplications(int, []int) error
	SetInstanceApplications(int, []int) error
	UpdateApplication(int, api.UpdateApplicationRequest) error
	UpdateInstance(int, api.UpdateInstanceRequest) error
	UpdateInstanceStatus(int, string, *string) error
}

type storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) Storage {
	return &storage{
		db: db,
	}
}

const instanceColumns = `
	id,
	name,
	environment,
	host,
	port,
	auth_username,
	auth_password_encrypted,
	description,
	is_active,
	disabled_reason,
	disabled_type,
	disabled_at,
	last_status,
	last_error,
	version,
	edition,
	cpu_cores,
	total_memory_gb,
	last_restart_time,
	last_checked_at
`

func (s *storage) CreateInstance(instance api.NewInstanceRequest) (int, error) {
	query := `
		INSERT INTO sql_instances (
			name,
			environment,
			host,
			port,
			auth_username,
			auth_password_encrypted,
			description,
			last_status,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	result, err := stmt.Exec(
		instance.Name,
		instance.Environment,
		instance.Host,
		instance.Port,
		instance.AuthUsername,
		instance.AuthPassword,
		instance.Description,
		api.StatusUnknown,
		time.Now(),
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

// DisableInstance takes an instance out of rotation. Nothing harvested from
// it is deleted; the record just stops showing up in active listings and
// scans until reactivated.
func (s *storage) DisableInstance(id int, request api.DisableInstanceRequest) error {
	query := `
		UPDATE sql_instances SET
			is_active       = 0,
			disabled_reason = $1,
			disabled_type   = $2,
			disabled_at     = $3,
			updated_at      = $3
		WHERE id = $4
	`
	_, err := s.db.Exec(query, request.Reason, request.Type, time.Now(), id)
	return err
}

func (s *storage) ReactivateInstance(id int) error {
	query := `
		UPDATE sql_instances SET
			is_active       = 1,
			disabled_reason = NULL,
			disabled_type   = NULL,
			disabled_at     = NULL,
			updated_at      = $1
		WHERE id = $2
	`
	_, err := s.db.Exec(query, time.Now(), id)
	return err
}

func (s *storage) GetInstance(id int) (*api.Instance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM sql_instances
		WHERE id = $1
	`
	row := s.db.QueryRow(query, id)

	instance, err := scanInstance(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return instance, nil
}

// ListInstances returns active instances only; the disabled ones live behind
// ListDisabledInstances.
func (s *storage) ListInstances() ([]api.Instance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM sql_instances
		WHERE is_active = 1
		ORDER BY name ASC
	`
	return s.listInstances(query)
}

func (s *storage) ListDisabledInstances() ([]api.Instance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM sql_instances
		WHERE is_active = 0
		ORDER BY disabled_at DESC
	`
	return s.listInstances(query)
}

func (s *storage) listInstances(query string, args ...interface{}) ([]api.Instance, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := make([]api.Instance, 0, 100)
	for rows.Next() {
		instance, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *instance)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instances, nil
}

func (s *storage) InstanceTree() ([]api.Tree, error) {
	instances, err := s.ListInstances()
	if err != nil {
		return nil, err
	}

	trees := make([]api.Tree, len(instances))
	for i, instance := range instances {
		databases, err := s.ListDatabases(instance.Id)
		if err != nil {
			return nil, err
		}
		trees[i].Instance = instance
		trees[i].Databases = databases
	}

	return trees, nil
}

func (s *storage) RunMigrations() error {
	for _, migration := range migrations {
		run, err := migration.check(s.db)
		if err != nil {
			return err
		}
		if !run {
			continue
		}
		if _, err := s.db.Exec(migration.sql); err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) UpdateInstance(id int, instance api.UpdateInstanceRequest) error {
	query := `
		UPDATE sql_instances SET
			name          = $1,
			environment   = $2,
			host          = $3,
			port          = $4,
			auth_username = $5,
			description   = $6,
			updated_at    = $7
		WHERE id = $8
	`
	args := []interface{}{
		instance.Name,
		instance.Environment,
		instance.Host,
		instance.Port,
		instance.AuthUsername,
		instance.Description,
		time.Now(),
		id,
	}

	// Only replace the stored credential when a new one was supplied.
	if instance.AuthPassword != "" {
		query = `
			UPDATE sql_instances SET
				name                    = $1,
				environment             = $2,
				host                    = $3,
				port                    = $4,
				auth_username           = $5,
				description             = $6,
				updated_at              = $7,
				auth_password_encrypted = $8
			WHERE id = $9
		`
		args = []interface{}{
			instance.Name,
			instance.Environment,
			instance.Host,
			instance.Port,
			instance.AuthUsername,
			instance.Description,
			time.Now(),
			instance.AuthPassword,
			id,
		}
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(args...)
	return err
}

type scanFunc func(...interface{}) error

// prefixColumns qualifies a shared column list with a table alias for use in
// joined queries.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanInstance(scan scanFunc) (*api.Instance, error) {
	instance := new(api.Instance)
	var username, password, description sql.NullString
	var disabledReason, disabledType sql.NullString
	var disabledAt sql.NullTime
	var lastError, version, edition sql.NullString
	var cores sql.NullInt64
	var memory sql.NullFloat64
	var restart, checked sql.NullTime

	err := scan(
		&instance.Id,
		&instance.Name,
		&instance.Environment,
		&instance.Host,
		&instance.Port,
		&username,
		&password,
		&description,
		&instance.IsActive,
		&disabledReason,
		&disabledType,
		&disabledAt,
		&instance.LastStatus,
		&lastError,
		&version,
		&edition,
		&cores,
		&memory,
		&restart,
		&checked,
	)
	if err != nil {
		return nil, err
	}

	instance.AuthUsername = username.String
	instance.AuthPassword = password.String
	instance.Description = description.String
	instance.DisabledReason = nullString(disabledReason)
	instance.DisabledType = nullString(disabledType)
	instance.DisabledAt = nullTime(disabledAt)
	instance.LastError = nullString(lastError)
	instance.Version = nullString(version)
	instance.Edition = nullString(edition)
	instance.CpuCores = nullInt(cores)
	instance.TotalMemoryGb = nullFloat(memory)
	instance.LastRestartTime = nullTime(restart)
	instance.LastCheckedAt = nullTime(checked)

	return instance, nil
}
