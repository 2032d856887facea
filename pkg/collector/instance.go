package collector

import (
	"database/sql"
	"log"
	"strings"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

// Databases that exist on every instance and carry no inventory value.
var systemDatabases = []string{"master", "tempdb", "model", "msdb"}

func systemDatabaseClause() string {
	quoted := make([]string, len(systemDatabases))
	for i, name := range systemDatabases {
		quoted[i] = "'" + name + "'"
	}
	return strings.Join(quoted, ", ")
}

// HarvestInstance extracts a best-effort metadata snapshot from an instance.
// Only the initial connection is fatal; every later query degrades its own
// fields and lets the rest of the harvest continue.
func (c *Collector) HarvestInstance(instance api.Instance) api.InstanceSnapshot {
	snapshot := api.InstanceSnapshot{Status: api.StatusDown}

	db, err := c.open(BuildProfile(instance, c.vault, c.policy))
	if err != nil {
		msg := err.Error()
		snapshot.Error = &msg
		return snapshot
	}
	defer db.Close()

	snapshot.Status = api.StatusUp

	c.harvestVersion(db, instance.Name, &snapshot)
	c.harvestSysInfo(db, instance.Name, &snapshot)

	snapshot.Databases = c.harvestDatabases(db, instance.Name)
	// One database at a time keeps the connection count against the remote
	// server bounded and failure attribution per-database.
	for i := range snapshot.Databases {
		c.harvestBackups(db, instance.Name, &snapshot.Databases[i])
	}

	snapshot.Logins = c.harvestLogins(db, instance.Name)

	return snapshot
}

func (c *Collector) harvestVersion(db *sql.DB, name string, snapshot *api.InstanceSnapshot) {
	query := `
		SELECT
			SERVERPROPERTY('ProductVersion') AS Version,
			SERVERPROPERTY('Edition') AS Edition,
			SERVERPROPERTY('ProductLevel') AS ProductLevel
	`
	var version, edition, level sql.NullString
	err := db.QueryRow(query).Scan(&version, &edition, &level)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		log.Printf("harvest %s: version query: %s", name, err)
		return
	}

	if version.Valid {
		v := version.String
		if level.Valid {
			v += " (" + level.String + ")"
		}
		snapshot.Version = &v
	}
	snapshot.Edition = nullString(edition)
}

func (c *Collector) harvestSysInfo(db *sql.DB, name string, snapshot *api.InstanceSnapshot) {
	query := `
		SELECT
			sqlserver_start_time AS LastRestart,
			cpu_count AS CpuCores,
			CAST(physical_memory_kb / 1024.0 / 1024.0 AS DECIMAL(18,2)) AS TotalMemoryGb
		FROM sys.dm_os_sys_info
	`
	var restart sql.NullTime
	var cores sql.NullInt64
	var memory sql.NullFloat64
	err := db.QueryRow(query).Scan(&restart, &cores, &memory)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		log.Printf("harvest %s: sys info query: %s", name, err)
		return
	}

	snapshot.LastRestartTime = nullTime(restart)
	snapshot.CpuCores = nullInt(cores)
	snapshot.TotalMemoryGb = nullFloat(memory)
}

func (c *Collector) harvestDatabases(db *sql.DB, name string) []api.DatabaseInfo {
	query := `
		SELECT
			d.name,
			d.state_desc AS status,
			d.recovery_model_desc AS recovery_model,
			CAST((SELECT SUM(size) * 8.0 / 1024 FROM sys.master_files WHERE database_id = d.database_id) AS DECIMAL(18,2)) AS size_mb,
			(SELECT TOP 1 physical_name FROM sys.master_files WHERE database_id = d.database_id AND type = 0) AS data_file_path,
			CAST((SELECT SUM(size) * 8.0 / 1024 FROM sys.master_files WHERE database_id = d.database_id AND type = 0) AS DECIMAL(18,2)) AS data_file_size_mb,
			(SELECT TOP 1 physical_name FROM sys.master_files WHERE database_id = d.database_id AND type = 1) AS log_file_path,
			CAST((SELECT SUM(size) * 8.0 / 1024 FROM sys.master_files WHERE database_id = d.database_id AND type = 1) AS DECIMAL(18,2)) AS log_file_size_mb
		FROM sys.databases d
		WHERE d.name NOT IN (` + systemDatabaseClause() + `)
		ORDER BY d.name
	`
	rows, err := db.Query(query)
	if err != nil {
		log.Printf("harvest %s: database list query: %s", name, err)
		return nil
	}
	defer rows.Close()

	databases := make([]api.DatabaseInfo, 0, 100)
	for rows.Next() {
		var info api.DatabaseInfo
		var status, recovery, dataPath, logPath sql.NullString
		var size, dataSize, logSize sql.NullFloat64
		err := rows.Scan(
			&info.Name,
			&status,
			&recovery,
			&size,
			&dataPath,
			&dataSize,
			&logPath,
			&logSize,
		)
		if err != nil {
			log.Printf("harvest %s: scanning database row: %s", name, err)
			continue
		}
		if status.Valid {
			info.Status = status.String
		}
		info.RecoveryModel = nullString(recovery)
		info.SizeMb = nullFloat(size)
		info.DataFilePath = nullString(dataPath)
		info.DataFileSizeMb = nullFloat(dataSize)
		info.LogFilePath = nullString(logPath)
		info.LogFileSizeMb = nullFloat(logSize)
		databases = append(databases, info)
	}
	if err := rows.Err(); err != nil {
		log.Printf("harvest %s: reading database rows: %s", name, err)
	}

	return databases
}

// harvestBackups fills in the last-backup-per-type timestamps and the
// trailing 30 day backup history for one database. msdb may be unreadable
// for a limited login; the database then simply carries no history.
func (c *Collector) harvestBackups(db *sql.DB, name string, info *api.DatabaseInfo) {
	lastQuery := `
		SELECT
			type,
			MAX(backup_finish_date) AS last_backup
		FROM msdb.dbo.backupset
		WHERE database_name = @dbname
		GROUP BY type
	`
	rows, err := db.Query(lastQuery, sql.Named("dbname", info.Name))
	if err != nil {
		log.Printf("harvest %s: backup dates for %s: %s", name, info.Name, err)
		return
	}
	for rows.Next() {
		var kind string
		var finished sql.NullTime
		if err := rows.Scan(&kind, &finished); err != nil {
			log.Printf("harvest %s: scanning backup date row for %s: %s", name, info.Name, err)
			continue
		}
		switch kind {
		case "D":
			info.LastFullBackup = nullTime(finished)
		case "I":
			info.LastDiffBackup = nullTime(finished)
		case "L":
			info.LastLogBackup = nullTime(finished)
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("harvest %s: reading backup date rows for %s: %s", name, info.Name, err)
	}
	rows.Close()

	historyQuery := `
		SELECT
			type,
			backup_start_date,
			backup_finish_date,
			CAST(backup_size / 1024.0 / 1024.0 AS DECIMAL(18,2)) AS backup_size_mb
		FROM msdb.dbo.backupset
		WHERE database_name = @dbname
		AND backup_finish_date >= DATEADD(day, -30, GETDATE())
		ORDER BY backup_finish_date DESC
	`
	rows, err = db.Query(historyQuery, sql.Named("dbname", info.Name))
	if err != nil {
		log.Printf("harvest %s: backup history for %s: %s", name, info.Name, err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var event api.BackupEvent
		var kind string
		var start, finish sql.NullTime
		var size sql.NullFloat64
		if err := rows.Scan(&kind, &start, &finish, &size); err != nil {
			continue
		}
		event.Type = backupTypeName(kind)
		event.StartDate = nullTime(start)
		event.FinishDate = nullTime(finish)
		event.SizeMb = nullFloat(size)
		info.BackupHistory = append(info.BackupHistory, event)
	}
}

func (c *Collector) harvestLogins(db *sql.DB, name string) []api.LoginInfo {
	query := `
		SELECT
			name AS login_name,
			type_desc AS login_type,
			default_database_name AS default_database,
			is_disabled,
			create_date AS created_date
		FROM sys.server_principals
		WHERE type IN ('S', 'U', 'G')
		AND name NOT LIKE '##%'
		ORDER BY name
	`
	rows, err := db.Query(query)
	if err != nil {
		log.Printf("harvest %s: login query: %s", name, err)
		return nil
	}
	defer rows.Close()

	logins := make([]api.LoginInfo, 0, 100)
	for rows.Next() {
		var login api.LoginInfo
		var kind, defaultDb sql.NullString
		var disabled sql.NullBool
		var created sql.NullTime
		if err := rows.Scan(&login.Name, &kind, &defaultDb, &disabled, &created); err != nil {
			log.Printf("harvest %s: scanning login row: %s", name, err)
			continue
		}
		if kind.Valid {
			login.Type = kind.String
		}
		login.DefaultDatabase = nullString(defaultDb)
		login.Disabled = disabled.Valid && disabled.Bool
		login.CreatedDate = nullTime(created)
		logins = append(logins, login)
	}

	return logins
}

// backupTypeName maps msdb backupset type codes to readable labels. Unknown
// codes pass through as-is.
func backupTypeName(code string) string {
	switch code {
	case "D":
		return "Full"
	case "I":
		return "Differential"
	case "L":
		return "Log"
	}
	return code
}
