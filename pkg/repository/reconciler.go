package repository

import (
	"database/sql"
	"time"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

// UpdateInstanceStatus records the outcome of a reachability probe. The
// error message is kept only while the instance is DOWN.
func (s *storage) UpdateInstanceStatus(id int, status string, lastError *string) error {
	query := `
		UPDATE sql_instances SET
			last_status     = $1,
			last_error      = $2,
			last_checked_at = $3,
			updated_at      = $3
		WHERE id = $4
	`
	if status != api.StatusDown {
		lastError = nil
	}

	_, err := s.db.Exec(query, status, lastError, time.Now(), id)
	return err
}

// SaveInstanceSnapshot reconciles a harvested instance snapshot. Status and
// last-checked are stamped unconditionally; nil metadata fields leave the
// stored values alone so a DOWN harvest does not wipe what the last
// successful one learned. Databases are upserted and never deleted here,
// backup history is fully replaced per database that reported any, and
// logins are fully replaced only when the snapshot carries some.
func (s *storage) SaveInstanceSnapshot(id int, snapshot api.InstanceSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	var lastError *string
	if snapshot.Status == api.StatusDown {
		lastError = snapshot.Error
	}

	query := `
		UPDATE sql_instances SET
			last_status       = $1,
			last_error        = $2,
			version           = COALESCE($3, version),
			edition           = COALESCE($4, edition),
			last_restart_time = COALESCE($5, last_restart_time),
			cpu_cores         = COALESCE($6, cpu_cores),
			total_memory_gb   = COALESCE($7, total_memory_gb),
			last_checked_at   = $8,
			updated_at        = $8
		WHERE id = $9
	`
	_, err = tx.Exec(query,
		snapshot.Status,
		lastError,
		snapshot.Version,
		snapshot.Edition,
		snapshot.LastRestartTime,
		snapshot.CpuCores,
		snapshot.TotalMemoryGb,
		now,
		id,
	)
	if err != nil {
		return err
	}

	for _, database := range snapshot.Databases {
		databaseId, err := upsertDatabase(tx, id, database, now)
		if err != nil {
			return err
		}
		if len(database.BackupHistory) == 0 {
			continue
		}
		if err := replaceBackupHistory(tx, databaseId, database.BackupHistory, now); err != nil {
			return err
		}
	}

	if len(snapshot.Logins) > 0 {
		if err := replaceLogins(tx, id, snapshot.Logins, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveDatabaseSnapshot reconciles one database's object inventory. Each
// non-nil collection fully replaces the stored rows; a nil collection means
// that query never ran and its rows are left untouched.
func (s *storage) SaveDatabaseSnapshot(databaseId int, snapshot api.DatabaseSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	if snapshot.Tables != nil {
		if err := replaceTables(tx, databaseId, snapshot.Tables, now); err != nil {
			return err
		}
	}

	if snapshot.Indexes != nil {
		if err := replaceIndexes(tx, databaseId, snapshot.Indexes, now); err != nil {
			return err
		}
	}

	if snapshot.Procedures != nil {
		if err := replaceProcedures(tx, databaseId, snapshot.Procedures, now); err != nil {
			return err
		}
	}

	if snapshot.Users != nil {
		if err := replaceUsers(tx, databaseId, snapshot.Users, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertDatabase(tx *sql.Tx, instanceId int, database api.DatabaseInfo, now time.Time) (int, error) {
	query := `
		INSERT INTO sql_databases (
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
			last_log_backup,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (instance_id, name) DO UPDATE SET
			status            = excluded.status,
			recovery_model    = excluded.recovery_model,
			size_mb           = excluded.size_mb,
			data_file_path    = excluded.data_file_path,
			data_file_size_mb = excluded.data_file_size_mb,
			log_file_path     = excluded.log_file_path,
			log_file_size_mb  = excluded.log_file_size_mb,
			last_full_backup  = excluded.last_full_backup,
			last_diff_backup  = excluded.last_diff_backup,
			last_log_backup   = excluded.last_log_backup,
			updated_at        = excluded.updated_at
	`
	_, err := tx.Exec(query,
		instanceId,
		database.Name,
		database.Status,
		database.RecoveryModel,
		database.SizeMb,
		database.DataFilePath,
		database.DataFileSizeMb,
		database.LogFilePath,
		database.LogFileSizeMb,
		database.LastFullBackup,
		database.LastDiffBackup,
		database.LastLogBackup,
		now,
	)
	if err != nil {
		return 0, err
	}

	var databaseId int
	err = tx.QueryRow(
		`SELECT id FROM sql_databases WHERE instance_id = $1 AND name = $2`,
		instanceId, database.Name,
	).Scan(&databaseId)
	return databaseId, err
}

func replaceBackupHistory(tx *sql.Tx, databaseId int, history []api.BackupEvent, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM backup_history WHERE database_id = $1`, databaseId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO backup_history (
			database_id,
			backup_type,
			backup_start_date,
			backup_finish_date,
			backup_size_mb,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, event := range history {
		_, err := stmt.Exec(
			databaseId,
			event.Type,
			event.StartDate,
			event.FinishDate,
			event.SizeMb,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceLogins(tx *sql.Tx, instanceId int, logins []api.LoginInfo, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM sql_instance_logins WHERE instance_id = $1`, instanceId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sql_instance_logins (
			instance_id,
			login_name,
			login_type,
			default_database,
			is_disabled,
			created_date,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, login := range logins {
		_, err := stmt.Exec(
			instanceId,
			login.Name,
			login.Type,
			login.DefaultDatabase,
			login.Disabled,
			login.CreatedDate,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceTables(tx *sql.Tx, databaseId int, tables []api.TableInfo, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM db_tables WHERE database_id = $1`, databaseId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO db_tables (
			database_id,
			schema_name,
			table_name,
			row_count,
			created_date,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, table := range tables {
		_, err := stmt.Exec(
			databaseId,
			table.Schema,
			table.Name,
			table.RowCount,
			table.CreatedDate,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceIndexes(tx *sql.Tx, databaseId int, indexes []api.IndexInfo, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM db_indexes WHERE database_id = $1`, databaseId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO db_indexes (
			database_id,
			table_name,
			index_name,
			index_type,
			is_unique,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, index := range indexes {
		_, err := stmt.Exec(
			databaseId,
			index.Table,
			index.Name,
			index.Type,
			index.Unique,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceProcedures(tx *sql.Tx, databaseId int, procedures []api.ProcedureInfo, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM db_stored_procedures WHERE database_id = $1`, databaseId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO db_stored_procedures (
			database_id,
			schema_name,
			procedure_name,
			created_date,
			updated_at
		) VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, procedure := range procedures {
		_, err := stmt.Exec(
			databaseId,
			procedure.Schema,
			procedure.Name,
			procedure.CreatedDate,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func replaceUsers(tx *sql.Tx, databaseId int, users []api.UserInfo, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM db_users WHERE database_id = $1`, databaseId); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO db_users (
			database_id,
			user_name,
			user_type,
			default_schema,
			roles,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, user := range users {
		_, err := stmt.Exec(
			databaseId,
			user.Name,
			user.Type,
			user.DefaultSchema,
			user.Roles,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
