package api

import "time"

// Instance reachability states stored in last_status.
const (
	StatusUp      = "UP"
	StatusDown    = "DOWN"
	StatusUnknown = "UNKNOWN"
)

// Environments an instance may be tagged with.
var Environments = []string{"Production", "Dev", "QA", "UAT", "Other"}

// Ways an instance can be taken out of rotation. A disable is always soft:
// the record and everything harvested from it stay in the store.
var DisableTypes = []string{"permanent", "temporary"}

type Instance struct {
	Id              int        `json:"id"`
	Name            string     `json:"name"`
	Environment     string     `json:"environment"`
	Host            string     `json:"host"`
	Port            int        `json:"port"`
	AuthUsername    string     `json:"auth_username"`
	AuthPassword    string     `json:"-"`
	Description     string     `json:"description"`
	IsActive        bool       `json:"is_active"`
	DisabledReason  *string    `json:"disabled_reason"`
	DisabledType    *string    `json:"disabled_type"`
	DisabledAt      *time.Time `json:"disabled_at"`
	LastStatus      string     `json:"last_status"`
	LastError       *string    `json:"last_error"`
	Version         *string    `json:"version"`
	Edition         *string    `json:"edition"`
	CpuCores        *int       `json:"cpu_cores"`
	TotalMemoryGb   *float64   `json:"total_memory_gb"`
	LastRestartTime *time.Time `json:"last_restart_time"`
	LastCheckedAt   *time.Time `json:"last_checked_at"`
}

type Database struct {
	Id             int        `json:"id"`
	InstanceId     int        `json:"instance_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	RecoveryModel  *string    `json:"recovery_model"`
	SizeMb         *float64   `json:"size_mb"`
	DataFilePath   *string    `json:"data_file_path"`
	DataFileSizeMb *float64   `json:"data_file_size_mb"`
	LogFilePath    *string    `json:"log_file_path"`
	LogFileSizeMb  *float64   `json:"log_file_size_mb"`
	LastFullBackup *time.Time `json:"last_full_backup"`
	LastDiffBackup *time.Time `json:"last_diff_backup"`
	LastLogBackup  *time.Time `json:"last_log_backup"`
}

type BackupEntry struct {
	Id         int        `json:"id"`
	DatabaseId int        `json:"database_id"`
	Type       string     `json:"backup_type"`
	StartDate  *time.Time `json:"backup_start_date"`
	FinishDate *time.Time `json:"backup_finish_date"`
	SizeMb     *float64   `json:"backup_size_mb"`
}

type Login struct {
	Id              int        `json:"id"`
	InstanceId      int        `json:"instance_id"`
	Name            string     `json:"login_name"`
	Type            *string    `json:"login_type"`
	DefaultDatabase *string    `json:"default_database"`
	Disabled        bool       `json:"is_disabled"`
	CreatedDate     *time.Time `json:"created_date"`
}

type Table struct {
	Id          int        `json:"id"`
	DatabaseId  int        `json:"database_id"`
	Schema      string     `json:"schema_name"`
	Name        string     `json:"table_name"`
	RowCount    *int64     `json:"row_count"`
	CreatedDate *time.Time `json:"created_date"`
}

type Index struct {
	Id         int     `json:"id"`
	DatabaseId int     `json:"database_id"`
	Table      string  `json:"table_name"`
	Name       string  `json:"index_name"`
	Type       *string `json:"index_type"`
	Unique     bool    `json:"is_unique"`
}

type StoredProcedure struct {
	Id          int        `json:"id"`
	DatabaseId  int        `json:"database_id"`
	Schema      string     `json:"schema_name"`
	Name        string     `json:"procedure_name"`
	CreatedDate *time.Time `json:"created_date"`
}

type DatabaseUser struct {
	Id            int     `json:"id"`
	DatabaseId    int     `json:"database_id"`
	Name          string  `json:"user_name"`
	Type          *string `json:"user_type"`
	DefaultSchema *string `json:"default_schema"`
	Roles         *string `json:"roles"`
}

type Tree struct {
	Instance  Instance   `json:"instance"`
	Databases []Database `json:"databases"`
}

// Application tags group databases and instances by the business system they
// serve. Pure human-entered metadata, never touched by a harvest.
type Application struct {
	Id            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	DatabaseCount int    `json:"database_count"`
	InstanceCount int    `json:"instance_count"`
}

type ApplicationDetail struct {
	Application
	Databases []Database `json:"databases"`
	Instances []Instance `json:"instances"`
}

type NewInstanceRequest struct {
	Name         string `json:"name"`
	Environment  string `json:"environment"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	AuthUsername string `json:"auth_username"`
	AuthPassword string `json:"auth_password"`
	Description  string `json:"description"`
}

// UpdateInstanceRequest leaves the stored credential alone when AuthPassword
// is empty.
type UpdateInstanceRequest struct {
	Name         string `json:"name"`
	Environment  string `json:"environment"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	AuthUsername string `json:"auth_username"`
	AuthPassword string `json:"auth_password"`
	Description  string `json:"description"`
}

type DisableInstanceRequest struct {
	Reason string `json:"reason"`
	Type   string `json:"type"`
}

// SetApplicationsRequest replaces the full application tag set on a database
// or instance.
type SetApplicationsRequest struct {
	ApplicationIds []int `json:"application_ids"`
}

type NewApplicationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateApplicationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
