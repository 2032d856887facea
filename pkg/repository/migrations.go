package repository

import "database/sql"

type checkFunc func(*sql.DB) (bool, error)

type migration struct {
	sql   string
	check checkFunc
}

var migrations = []migration{
	{
		sql: `
			CREATE TABLE sql_instances (
				id                      INTEGER PRIMARY KEY,
				name                    TEXT NOT NULL UNIQUE,
				environment             TEXT NOT NULL CHECK (environment IN ('Production', 'Dev', 'QA', 'UAT', 'Other')),
				host                    TEXT NOT NULL,
				port                    INTEGER NOT NULL DEFAULT 1433,
				auth_username           TEXT,
				auth_password_encrypted TEXT,
				description             TEXT NOT NULL DEFAULT '',
				is_active               INTEGER NOT NULL DEFAULT 1,
				disabled_reason         TEXT,
				disabled_type           TEXT CHECK (disabled_type IN ('permanent', 'temporary') OR disabled_type IS NULL),
				disabled_at             DATETIME,
				last_status             TEXT NOT NULL DEFAULT 'UNKNOWN',
				last_error              TEXT,
				version                 TEXT,
				edition                 TEXT,
				cpu_cores               INTEGER,
				total_memory_gb         REAL,
				last_restart_time       DATETIME,
				last_checked_at         DATETIME,
				updated_at              DATETIME
			)
		`,
		check: checkTableExists("sql_instances"),
	},
	{
		sql: `
			CREATE TABLE sql_databases (
				id                INTEGER PRIMARY KEY,
				instance_id       INTEGER NOT NULL,
				name              TEXT NOT NULL,
				status            TEXT NOT NULL DEFAULT 'UNKNOWN',
				recovery_model    TEXT,
				size_mb           REAL,
				data_file_path    TEXT,
				data_file_size_mb REAL,
				log_file_path     TEXT,
				log_file_size_mb  REAL,
				last_full_backup  DATETIME,
				last_diff_backup  DATETIME,
				last_log_backup   DATETIME,
				updated_at        DATETIME,
				UNIQUE (instance_id, name),
				FOREIGN KEY (instance_id) REFERENCES sql_instances (id)
			)
		`,
		check: checkTableExists("sql_databases"),
	},
	{
		sql: `
			CREATE TABLE backup_history (
				id                 INTEGER PRIMARY KEY,
				database_id        INTEGER NOT NULL,
				backup_type        TEXT NOT NULL,
				backup_start_date  DATETIME,
				backup_finish_date DATETIME,
				backup_size_mb     REAL,
				updated_at         DATETIME,
				FOREIGN KEY (database_id) REFERENCES sql_databases (id)
			)
		`,
		check: checkTableExists("backup_history"),
	},
	{
		sql: `
			CREATE TABLE sql_instance_logins (
				id               INTEGER PRIMARY KEY,
				instance_id      INTEGER NOT NULL,
				login_name       TEXT NOT NULL,
				login_type       TEXT,
				default_database TEXT,
				is_disabled      INTEGER NOT NULL DEFAULT 0,
				created_date     DATETIME,
				updated_at       DATETIME,
				FOREIGN KEY (instance_id) REFERENCES sql_instances (id)
			)
		`,
		check: checkTableExists("sql_instance_logins"),
	},
	{
		sql: `
			CREATE TABLE db_tables (
				id           INTEGER PRIMARY KEY,
				database_id  INTEGER NOT NULL,
				schema_name  TEXT NOT NULL,
				table_name   TEXT NOT NULL,
				row_count    INTEGER,
				created_date DATETIME,
				updated_at   DATETIME,
				FOREIGN KEY (database_id) REFERENCES sql_databases (id)
			)
		`,
		check: checkTableExists("db_tables"),
	},
	{
		sql: `
			CREATE TABLE db_indexes (
				id          INTEGER PRIMARY KEY,
				database_id INTEGER NOT NULL,
				table_name  TEXT NOT NULL,
				index_name  TEXT NOT NULL,
				index_type  TEXT,
				is_unique   INTEGER NOT NULL DEFAULT 0,
				updated_at  DATETIME,
				FOREIGN KEY (database_id) REFERENCES sql_databases (id)
			)
		`,
		check: checkTableExists("db_indexes"),
	},
	{
		sql: `
			CREATE TABLE db_stored_procedures (
				id             INTEGER PRIMARY KEY,
				database_id    INTEGER NOT NULL,
				schema_name    TEXT NOT NULL,
				procedure_name TEXT NOT NULL,
				created_date   DATETIME,
				updated_at     DATETIME,
				FOREIGN KEY (database_id) REFERENCES sql_databases (id)
			)
		`,
		check: checkTableExists("db_stored_procedures"),
	},
	{
		sql: `
			CREATE TABLE db_users (
				id             INTEGER PRIMARY KEY,
				database_id    INTEGER NOT NULL,
				user_name      TEXT NOT NULL,
				user_type      TEXT,
				default_schema TEXT,
				roles          TEXT,
				updated_at     DATETIME,
				FOREIGN KEY (database_id) REFERENCES sql_databases (id)
			)
		`,
		check: checkTableExists("db_users"),
	},
	{
		sql: `
			CREATE TABLE applications (
				id          INTEGER PRIMARY KEY,
				name        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				updated_at  DATETIME
			)
		`,
		check: checkTableExists("applications"),
	},
	{
		sql: `
			CREATE TABLE database_applications (
				id             INTEGER PRIMARY KEY,
				database_id    INTEGER NOT NULL,
				application_id INTEGER NOT NULL,
				UNIQUE (database_id, application_id),
				FOREIGN KEY (database_id) REFERENCES sql_databases (id),
				FOREIGN KEY (application_id) REFERENCES applications (id)
			)
		`,
		check: checkTableExists("database_applications"),
	},
	{
		sql: `
			CREATE TABLE instance_applications (
				id             INTEGER PRIMARY KEY,
				instance_id    INTEGER NOT NULL,
				application_id INTEGER NOT NULL,
				UNIQUE (instance_id, application_id),
				FOREIGN KEY (instance_id) REFERENCES sql_instances (id),
				FOREIGN KEY (application_id) REFERENCES applications (id)
			)
		`,
		check: checkTableExists("instance_applications"),
	},
	{
		sql: `
			CREATE INDEX idx_sql_instances_environment ON sql_instances (environment);
			CREATE INDEX idx_sql_instances_status ON sql_instances (last_status);
			CREATE INDEX idx_sql_databases_instance ON sql_databases (instance_id);
			CREATE INDEX idx_backup_history_database ON backup_history (database_id);
			CREATE INDEX idx_db_tables_database ON db_tables (database_id);
			CREATE INDEX idx_db_indexes_database ON db_indexes (database_id);
			CREATE INDEX idx_db_stored_procedures_database ON db_stored_procedures (database_id);
			CREATE INDEX idx_db_users_database ON db_users (database_id);
			CREATE INDEX idx_database_applications_application ON database_applications (application_id);
			CREATE INDEX idx_instance_applications_application ON instance_applications (application_id);
		`,
		check: checkIndexExists("idx_sql_instances_environment"),
	},
}

func checkTableExists(name string) checkFunc {
	return checkMasterEntry("table", name)
}

func checkIndexExists(name string) checkFunc {
	return checkMasterEntry("index", name)
}

func checkMasterEntry(kind, name string) checkFunc {
	return func(db *sql.DB) (bool, error) {
		sql := `
			SELECT name
			FROM sqlite_master
			WHERE
				type = $1
				AND name = $2
		`
		stmt, err := db.Prepare(sql)
		if err != nil {
			return false, err
		}
		defer stmt.Close()
		rows, err := stmt.Query(kind, name)
		if err != nil {
			return false, err
		}
		defer rows.Close()
		return !rows.Next(), nil
	}
}
