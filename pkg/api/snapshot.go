package api

import "time"

// InstanceSnapshot is the result of one best-effort metadata harvest of an
// instance. Nil fields mean the corresponding query returned nothing (or
// failed) and the stored value should be left alone; they are distinct from
// empty values, which overwrite.
type InstanceSnapshot struct {
	Status          string         `json:"status"`
	Error           *string        `json:"error"`
	Version         *string        `json:"version"`
	Edition         *string        `json:"edition"`
	LastRestartTime *time.Time     `json:"last_restart_time"`
	CpuCores        *int           `json:"cpu_cores"`
	TotalMemoryGb   *float64       `json:"total_memory_gb"`
	Databases       []DatabaseInfo `json:"databases"`
	Logins          []LoginInfo    `json:"logins"`
}

type DatabaseInfo struct {
	Name           string        `json:"name"`
	Status         string        `json:"status"`
	RecoveryModel  *string       `json:"recovery_model"`
	SizeMb         *float64      `json:"size_mb"`
	DataFilePath   *string       `json:"data_file_path"`
	DataFileSizeMb *float64      `json:"data_file_size_mb"`
	LogFilePath    *string       `json:"log_file_path"`
	LogFileSizeMb  *float64      `json:"log_file_size_mb"`
	LastFullBackup *time.Time    `json:"last_full_backup"`
	LastDiffBackup *time.Time    `json:"last_diff_backup"`
	LastLogBackup  *time.Time    `json:"last_log_backup"`
	BackupHistory  []BackupEvent `json:"backup_history"`
}

type BackupEvent struct {
	Type       string     `json:"backup_type"`
	StartDate  *time.Time `json:"backup_start_date"`
	FinishDate *time.Time `json:"backup_finish_date"`
	SizeMb     *float64   `json:"backup_size_mb"`
}

type LoginInfo struct {
	Name            string     `json:"login_name"`
	Type            string     `json:"login_type"`
	DefaultDatabase *string    `json:"default_database"`
	Disabled        bool       `json:"is_disabled"`
	CreatedDate     *time.Time `json:"created_date"`
}

// DatabaseSnapshot holds the object inventory of a single database. A nil
// collection means that query was never attempted or failed; a non-nil empty
// collection means the database really has none of that object kind.
type DatabaseSnapshot struct {
	Tables     []TableInfo     `json:"tables"`
	Indexes    []IndexInfo     `json:"indexes"`
	Procedures []ProcedureInfo `json:"stored_procedures"`
	Users      []UserInfo      `json:"users"`
	Error      *string         `json:"error,omitempty"`
}

// RecordError keeps the first harvest failure message; later failures are
// already reflected by their nil collections.
func (s *DatabaseSnapshot) RecordError(err error) {
	if s.Error != nil || err == nil {
		return
	}
	msg := err.Error()
	s.Error = &msg
}

type TableInfo struct {
	Schema      string     `json:"schema_name"`
	Name        string     `json:"table_name"`
	RowCount    *int64     `json:"row_count"`
	CreatedDate *time.Time `json:"created_date"`
}

type IndexInfo struct {
	Table  string  `json:"table_name"`
	Name   string  `json:"index_name"`
	Type   *string `json:"index_type"`
	Unique bool    `json:"is_unique"`
}

type ProcedureInfo struct {
	Schema      string     `json:"schema_name"`
	Name        string     `json:"procedure_name"`
	CreatedDate *time.Time `json:"created_date"`
}

type UserInfo struct {
	Name          string  `json:"user_name"`
	Type          *string `json:"user_type"`
	DefaultSchema *string `json:"default_schema"`
	Roles         *string `json:"roles"`
}

type ProbeResult struct {
	Status string  `json:"status"`
	Error  *string `json:"error"`
}

// Harvester extracts metadata from a remote instance. Implementations never
// return an error: connectivity and query failures are captured inside the
// snapshots so there is always something to reconcile.
type Harvester interface {
	Probe(Instance) ProbeResult
	HarvestInstance(Instance) InstanceSnapshot
	HarvestDatabase(Instance, string) DatabaseSnapshot
}
