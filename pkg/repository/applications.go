package repository

import (
	"database/sql"
	"time"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

const applicationColumns = `
	a.id,
	a.name,
	a.description,
	(SELECT COUNT(*) FROM database_applications da WHERE da.application_id = a.id),
	(SELECT COUNT(*) FROM instance_applications ia WHERE ia.application_id = a.id)
`

func (s *storage) CreateApplication(application api.NewApplicationRequest) (int, error) {
	query := `
		INSERT INTO applications (name, description, updated_at)
		VALUES ($1, $2, $3)
	`
	result, err := s.db.Exec(query, application.Name, application.Description, time.Now())
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

func (s *storage) DeleteApplication(id int) error {
	queries := []string{
		`DELETE FROM database_applications WHERE application_id = $1`,
		`DELETE FROM instance_applications WHERE application_id = $1`,
		`DELETE FROM applications WHERE id = $1`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range queries {
		if _, err := tx.Exec(query, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *storage) GetApplication(id int) (*api.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		WHERE a.id = $1
	`
	application, err := scanApplication(s.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return application, nil
}

func (s *storage) ListApplications() ([]api.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		ORDER BY a.name ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]api.Application, 0, 50)
	for rows.Next() {
		application, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *application)
	}

	return applications, rows.Err()
}

// ListApplicationDatabases returns the databases tagged with an application,
// limited to databases on active instances.
func (s *storage) ListApplicationDatabases(applicationId int) ([]api.Database, error) {
	query := `
		SELECT ` + prefixColumns("d", databaseColumns) + `
		FROM sql_databases d
		INNER JOIN database_applications da ON d.id = da.database_id
		INNER JOIN sql_instances i ON d.instance_id = i.id
		WHERE da.application_id = $1 AND i.is_active = 1
		ORDER BY d.name ASC
	`
	rows, err := s.db.Query(query, applicationId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	databases := make([]api.Database, 0, 50)
	for rows.Next() {
		database, err := scanDatabase(rows.Scan)
		if err != nil {
			return nil, err
		}
		databases = append(databases, *database)
	}

	return databases, rows.Err()
}

func (s *storage) ListApplicationInstances(applicationId int) ([]api.Instance, error) {
	query := `
		SELECT ` + prefixColumns("i", instanceColumns) + `
		FROM sql_instances i
		INNER JOIN instance_applications ia ON i.id = ia.instance_id
		WHERE ia.application_id = $1 AND i.is_active = 1
		ORDER BY i.name ASC
	`
	return s.listInstances(query, applicationId)
}

func (s *storage) ListDatabaseApplications(databaseId int) ([]api.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		INNER JOIN database_applications da ON a.id = da.application_id
		WHERE da.database_id = $1
		ORDER BY a.name ASC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]api.Application, 0, 10)
	for rows.Next() {
		application, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *application)
	}

	return applications, rows.Err()
}

func (s *storage) SetDatabaseApplications(databaseId int, applicationIds []int) error {
	return s.setApplicationLinks("database_applications", "database_id", databaseId, applicationIds)
}

func (s *storage) SetInstanceApplications(instanceId int, applicationIds []int) error {
	return s.setApplicationLinks("instance_applications", "instance_id", instanceId, applicationIds)
}

// setApplicationLinks replaces the full set of application tags on a database
// or instance in one transaction.
func (s *storage) setApplicationLinks(table, column string, ownerId int, applicationIds []int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM `+table+` WHERE `+column+` = $1`, ownerId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (` + column + `, application_id) VALUES ($1, $2)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, applicationId := range applicationIds {
		if _, err := stmt.Exec(ownerId, applicationId); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *storage) UpdateApplication(id int, application api.UpdateApplicationRequest) error {
	query := `
		UPDATE applications SET
			name        = $1,
			description = $2,
			updated_at  = $3
		WHERE id = $4
	`
	_, err := s.db.Exec(query, application.Name, application.Description, time.Now(), id)
	return err
}

func scanApplication(scan scanFunc) (*api.Application, error) {
	application := new(api.Application)
	var description sql.NullString

	err := scan(
		&application.Id,
		&application.Name,
		&description,
		&application.DatabaseCount,
		&application.InstanceCount,
	)
	if err != nil {
		return nil, err
	}

	application.Description = description.String

	return application, nil
}
