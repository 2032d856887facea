package repository

import (
	"database/sql"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

const databaseColumns = `
	id,
	instance_id,
	name,
	status,
	recovery_model,
	size_mb,
	data_file_path,
	data_file_size_mb,
	log_file_path,
	log_file_size_mb,
	last_full_backup,
	last_diff_backup,
	last_log_backup
`

func (s *storage) GetDatabase(id int) (*api.Database, error) {
	query := `
		SELECT ` + databaseColumns + `
		FROM sql_databases
		WHERE id = $1
	`
	database, err := scanDatabase(s.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return database, nil
}

func (s *storage) GetDatabaseByName(instanceId int, name string) (*api.Database, error) {
	query := `
		SELECT ` + databaseColumns + `
		FROM sql_databases
		WHERE instance_id = $1 AND name = $2
	`
	database, err := scanDatabase(s.db.QueryRow(query, instanceId, name).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return database, nil
}

func (s *storage) ListDatabases(instanceId int) ([]api.Database, error) {
	query := `
		SELECT ` + databaseColumns + `
		FROM sql_databases
		WHERE instance_id = $1
		ORDER BY name ASC
	`
	rows, err := s.db.Query(query, instanceId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	databases := make([]api.Database, 0, 100)
	for rows.Next() {
		database, err := scanDatabase(rows.Scan)
		if err != nil {
			return nil, err
		}
		databases = append(databases, *database)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return databases, nil
}

func (s *storage) ListBackupHistory(databaseId int) ([]api.BackupEntry, error) {
	query := `
		SELECT
			id,
			database_id,
			backup_type,
			backup_start_date,
			backup_finish_date,
			backup_size_mb
		FROM backup_history
		WHERE database_id = $1
		ORDER BY backup_finish_date DESC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]api.BackupEntry, 0, 100)
	for rows.Next() {
		var entry api.BackupEntry
		var start, finish sql.NullTime
		var size sql.NullFloat64
		err := rows.Scan(
			&entry.Id,
			&entry.DatabaseId,
			&entry.Type,
			&start,
			&finish,
			&size,
		)
		if err != nil {
			return nil, err
		}
		entry.StartDate = nullTime(start)
		entry.FinishDate = nullTime(finish)
		entry.SizeMb = nullFloat(size)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *storage) ListLogins(instanceId int) ([]api.Login, error) {
	query := `
		SELECT
			id,
			instance_id,
			login_name,
			login_type,
			default_database,
			is_disabled,
			created_date
		FROM sql_instance_logins
		WHERE instance_id = $1
		ORDER BY login_name ASC
	`
	rows, err := s.db.Query(query, instanceId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logins := make([]api.Login, 0, 100)
	for rows.Next() {
		var login api.Login
		var kind, defaultDb sql.NullString
		var created sql.NullTime
		err := rows.Scan(
			&login.Id,
			&login.InstanceId,
			&login.Name,
			&kind,
			&defaultDb,
			&login.Disabled,
			&created,
		)
		if err != nil {
			return nil, err
		}
		login.Type = nullString(kind)
		login.DefaultDatabase = nullString(defaultDb)
		login.CreatedDate = nullTime(created)
		logins = append(logins, login)
	}

	return logins, rows.Err()
}

func (s *storage) ListTables(databaseId int) ([]api.Table, error) {
	query := `
		SELECT
			id,
			database_id,
			schema_name,
			table_name,
			row_count,
			created_date
		FROM db_tables
		WHERE database_id = $1
		ORDER BY schema_name ASC, table_name ASC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]api.Table, 0, 200)
	for rows.Next() {
		var table api.Table
		var count sql.NullInt64
		var created sql.NullTime
		err := rows.Scan(
			&table.Id,
			&table.DatabaseId,
			&table.Schema,
			&table.Name,
			&count,
			&created,
		)
		if err != nil {
			return nil, err
		}
		table.RowCount = nullInt64(count)
		table.CreatedDate = nullTime(created)
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

func (s *storage) ListIndexes(databaseId int) ([]api.Index, error) {
	query := `
		SELECT
			id,
			database_id,
			table_name,
			index_name,
			index_type,
			is_unique
		FROM db_indexes
		WHERE database_id = $1
		ORDER BY table_name ASC, index_name ASC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := make([]api.Index, 0, 200)
	for rows.Next() {
		var index api.Index
		var kind sql.NullString
		err := rows.Scan(
			&index.Id,
			&index.DatabaseId,
			&index.Table,
			&index.Name,
			&kind,
			&index.Unique,
		)
		if err != nil {
			return nil, err
		}
		index.Type = nullString(kind)
		indexes = append(indexes, index)
	}

	return indexes, rows.Err()
}

func (s *storage) ListProcedures(databaseId int) ([]api.StoredProcedure, error) {
	query := `
		SELECT
			id,
			database_id,
			schema_name,
			procedure_name,
			created_date
		FROM db_stored_procedures
		WHERE database_id = $1
		ORDER BY schema_name ASC, procedure_name ASC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	procedures := make([]api.StoredProcedure, 0, 100)
	for rows.Next() {
		var procedure api.StoredProcedure
		var created sql.NullTime
		err := rows.Scan(
			&procedure.Id,
			&procedure.DatabaseId,
			&procedure.Schema,
			&procedure.Name,
			&created,
		)
		if err != nil {
			return nil, err
		}
		procedure.CreatedDate = nullTime(created)
		procedures = append(procedures, procedure)
	}

	return procedures, rows.Err()
}

func (s *storage) ListDatabaseUsers(databaseId int) ([]api.DatabaseUser, error) {
	query := `
		SELECT
			id,
			database_id,
			user_name,
			user_type,
			default_schema,
			roles
		FROM db_users
		WHERE database_id = $1
		ORDER BY user_name ASC
	`
	rows, err := s.db.Query(query, databaseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]api.DatabaseUser, 0, 50)
	for rows.Next() {
		var user api.DatabaseUser
		var kind, schema, roles sql.NullString
		err := rows.Scan(
			&user.Id,
			&user.DatabaseId,
			&user.Name,
			&kind,
			&schema,
			&roles,
		)
		if err != nil {
			return nil, err
		}
		user.Type = nullString(kind)
		user.DefaultSchema = nullString(schema)
		user.Roles = nullString(roles)
		users = append(users, user)
	}

	return users, rows.Err()
}

func scanDatabase(scan scanFunc) (*api.Database, error) {
	database := new(api.Database)
	var recovery, dataPath, logPath sql.NullString
	var size, dataSize, logSize sql.NullFloat64
	var full, diff, logBackup sql.NullTime

	err := scan(
		&database.Id,
		&database.InstanceId,
		&database.Name,
		&database.Status,
		&recovery,
		&size,
		&dataPath,
		&dataSize,
		&logPath,
		&logSize,
		&full,
		&diff,
		&logBackup,
	)
	if err != nil {
		return nil, err
	}

	database.RecoveryModel = nullString(recovery)
	database.SizeMb = nullFloat(size)
	database.DataFilePath = nullString(dataPath)
	database.DataFileSizeMb = nullFloat(dataSize)
	database.LogFilePath = nullString(logPath)
	database.LogFileSizeMb = nullFloat(logSize)
	database.LastFullBackup = nullTime(full)
	database.LastDiffBackup = nullTime(diff)
	database.LastLogBackup = nullTime(logBackup)

	return database, nil
}
