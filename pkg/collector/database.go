package collector

import (
	"database/sql"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

// HarvestDatabase extracts the object inventory of one database. The four
// queries run independently; the first failure is recorded on the snapshot
// but does not stop the others. A collection that was never fetched stays
// nil, which the reconciler treats as "leave the stored rows alone".
func (c *Collector) HarvestDatabase(instance api.Instance, databaseName string) api.DatabaseSnapshot {
	var snapshot api.DatabaseSnapshot

	profile := BuildProfile(instance, c.vault, c.policy).Narrow(databaseName)
	db, err := c.open(profile)
	if err != nil {
		msg := err.Error()
		snapshot.Error = &msg
		return snapshot
	}
	defer db.Close()

	if tables, err := queryTables(db); err != nil {
		snapshot.RecordError(err)
	} else {
		snapshot.Tables = tables
	}

	if indexes, err := queryIndexes(db); err != nil {
		snapshot.RecordError(err)
	} else {
		snapshot.Indexes = indexes
	}

	if procedures, err := queryProcedures(db); err != nil {
		snapshot.RecordError(err)
	} else {
		snapshot.Procedures = procedures
	}

	if users, err := queryUsers(db); err != nil {
		snapshot.RecordError(err)
	} else {
		snapshot.Users = users
	}

	return snapshot
}

func queryTables(db *sql.DB) ([]api.TableInfo, error) {
	query := `
		SELECT
			s.name AS schema_name,
			t.name AS table_name,
			p.rows AS row_count,
			t.create_date AS created_date
		FROM sys.tables t
		INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
		LEFT JOIN sys.partitions p ON t.object_id = p.object_id AND p.index_id IN (0, 1)
		ORDER BY s.name, t.name
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]api.TableInfo, 0, 200)
	for rows.Next() {
		var table api.TableInfo
		var count sql.NullInt64
		var created sql.NullTime
		if err := rows.Scan(&table.Schema, &table.Name, &count, &created); err != nil {
			return nil, err
		}
		table.RowCount = nullInt64(count)
		table.CreatedDate = nullTime(created)
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

func queryIndexes(db *sql.DB) ([]api.IndexInfo, error) {
	query := `
		SELECT
			OBJECT_NAME(i.object_id) AS table_name,
			i.name AS index_name,
			i.type_desc AS index_type,
			i.is_unique
		FROM sys.indexes i
		INNER JOIN sys.tables t ON i.object_id = t.object_id
		WHERE i.name IS NOT NULL
		ORDER BY OBJECT_NAME(i.object_id), i.name
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := make([]api.IndexInfo, 0, 200)
	for rows.Next() {
		var index api.IndexInfo
		var kind sql.NullString
		var unique sql.NullBool
		if err := rows.Scan(&index.Table, &index.Name, &kind, &unique); err != nil {
			return nil, err
		}
		index.Type = nullString(kind)
		index.Unique = unique.Valid && unique.Bool
		indexes = append(indexes, index)
	}

	return indexes, rows.Err()
}

func queryProcedures(db *sql.DB) ([]api.ProcedureInfo, error) {
	query := `
		SELECT
			s.name AS schema_name,
			p.name AS procedure_name,
			p.create_date AS created_date
		FROM sys.procedures p
		INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
		ORDER BY s.name, p.name
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	procedures := make([]api.ProcedureInfo, 0, 100)
	for rows.Next() {
		var procedure api.ProcedureInfo
		var created sql.NullTime
		if err := rows.Scan(&procedure.Schema, &procedure.Name, &created); err != nil {
			return nil, err
		}
		procedure.CreatedDate = nullTime(created)
		procedures = append(procedures, procedure)
	}

	return procedures, rows.Err()
}

func queryUsers(db *sql.DB) ([]api.UserInfo, error) {
	query := `
		SELECT
			dp.name AS user_name,
			dp.type_desc AS user_type,
			dp.default_schema_name AS default_schema,
			STRING_AGG(r.name, ', ') AS roles
		FROM sys.database_principals dp
		LEFT JOIN sys.database_role_members drm ON dp.principal_id = drm.member_principal_id
		LEFT JOIN sys.database_principals r ON drm.role_principal_id = r.principal_id
		WHERE dp.type IN ('S', 'U', 'G')
		AND dp.name NOT IN ('guest', 'INFORMATION_SCHEMA', 'sys')
		GROUP BY dp.name, dp.type_desc, dp.default_schema_name
		ORDER BY dp.name
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]api.UserInfo, 0, 50)
	for rows.Next() {
		var user api.UserInfo
		var kind, schema, roles sql.NullString
		if err := rows.Scan(&user.Name, &kind, &schema, &roles); err != nil {
			return nil, err
		}
		user.Type = nullString(kind)
		user.DefaultSchema = nullString(schema)
		user.Roles = nullString(roles)
		users = append(users, user)
	}

	return users, rows.Err()
}
