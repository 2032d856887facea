package repository

import (
	"database/sql"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

const searchLimit = 20
const databaseHitLimit = 30

// SearchInventory runs a LIKE search for the term across instances,
// databases, tables and stored procedures on active instances. Databases
// match by their own name, by an application tag, or by containing a matching
// table or procedure; the merged database list is de-duplicated and capped.
func (s *storage) SearchInventory(term string) (*api.SearchResults, error) {
	pattern := "%" + term + "%"

	instances, err := s.searchInstances(pattern)
	if err != nil {
		return nil, err
	}

	databases, err := s.searchDatabases(pattern)
	if err != nil {
		return nil, err
	}

	tables, err := s.searchTables(pattern)
	if err != nil {
		return nil, err
	}

	procedures, err := s.searchProcedures(pattern)
	if err != nil {
		return nil, err
	}

	return &api.SearchResults{
		Instances:  instances,
		Databases:  databases,
		Tables:     tables,
		Procedures: procedures,
	}, nil
}

func (s *storage) searchInstances(pattern string) ([]api.InstanceHit, error) {
	query := `
		SELECT id, name, environment, last_status, description
		FROM sql_instances
		WHERE is_active = 1
		AND (name LIKE $1 OR description LIKE $1)
		ORDER BY name
		LIMIT $2
	`
	rows, err := s.db.Query(query, pattern, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]api.InstanceHit, 0, searchLimit)
	for rows.Next() {
		var hit api.InstanceHit
		var description sql.NullString
		err := rows.Scan(&hit.Id, &hit.Name, &hit.Environment, &hit.LastStatus, &description)
		if err != nil {
			return nil, err
		}
		hit.Description = description.String
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

const databaseHitSelect = `
	SELECT d.id, d.name, d.status, i.name, i.environment
	FROM sql_databases d
	INNER JOIN sql_instances i ON d.instance_id = i.id
`

func (s *storage) searchDatabases(pattern string) ([]api.DatabaseHit, error) {
	queries := []string{
		databaseHitSelect + `
			WHERE i.is_active = 1
			AND d.name LIKE $1
			ORDER BY d.name
			LIMIT $2
		`,
		databaseHitSelect + `
			INNER JOIN database_applications da ON d.id = da.database_id
			INNER JOIN applications a ON da.application_id = a.id
			WHERE i.is_active = 1
			AND a.name LIKE $1
			ORDER BY d.name
			LIMIT $2
		`,
		databaseHitSelect + `
			INNER JOIN db_tables t ON d.id = t.database_id
			WHERE i.is_active = 1
			AND t.table_name LIKE $1
			GROUP BY d.id
			ORDER BY d.name
			LIMIT $2
		`,
		databaseHitSelect + `
			INNER JOIN db_stored_procedures p ON d.id = p.database_id
			WHERE i.is_active = 1
			AND p.procedure_name LIKE $1
			GROUP BY d.id
			ORDER BY d.name
			LIMIT $2
		`,
	}

	seen := make(map[int]bool)
	hits := make([]api.DatabaseHit, 0, databaseHitLimit)

	for _, query := range queries {
		found, err := s.queryDatabaseHits(query, pattern)
		if err != nil {
			return nil, err
		}
		for _, hit := range found {
			if seen[hit.Id] || len(hits) >= databaseHitLimit {
				continue
			}
			seen[hit.Id] = true
			hits = append(hits, hit)
		}
	}

	return hits, nil
}

func (s *storage) queryDatabaseHits(query, pattern string) ([]api.DatabaseHit, error) {
	rows, err := s.db.Query(query, pattern, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]api.DatabaseHit, 0, searchLimit)
	for rows.Next() {
		var hit api.DatabaseHit
		err := rows.Scan(&hit.Id, &hit.Name, &hit.Status, &hit.InstanceName, &hit.Environment)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

func (s *storage) searchTables(pattern string) ([]api.TableHit, error) {
	query := `
		SELECT
			t.id, t.schema_name, t.table_name, t.row_count,
			d.id, d.name, i.name, i.environment
		FROM db_tables t
		INNER JOIN sql_databases d ON t.database_id = d.id
		INNER JOIN sql_instances i ON d.instance_id = i.id
		WHERE i.is_active = 1
		AND t.table_name LIKE $1
		ORDER BY t.table_name
		LIMIT $2
	`
	rows, err := s.db.Query(query, pattern, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]api.TableHit, 0, searchLimit)
	for rows.Next() {
		var hit api.TableHit
		var count sql.NullInt64
		err := rows.Scan(
			&hit.Id,
			&hit.Schema,
			&hit.Name,
			&count,
			&hit.DatabaseId,
			&hit.DatabaseName,
			&hit.InstanceName,
			&hit.Environment,
		)
		if err != nil {
			return nil, err
		}
		hit.RowCount = nullInt64(count)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

func (s *storage) searchProcedures(pattern string) ([]api.ProcedureHit, error) {
	query := `
		SELECT
			p.id, p.schema_name, p.procedure_name,
			d.id, d.name, i.name, i.environment
		FROM db_stored_procedures p
		INNER JOIN sql_databases d ON p.database_id = d.id
		INNER JOIN sql_instances i ON d.instance_id = i.id
		WHERE i.is_active = 1
		AND p.procedure_name LIKE $1
		ORDER BY p.procedure_name
		LIMIT $2
	`
	rows, err := s.db.Query(query, pattern, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]api.ProcedureHit, 0, searchLimit)
	for rows.Next() {
		var hit api.ProcedureHit
		err := rows.Scan(
			&hit.Id,
			&hit.Schema,
			&hit.Name,
			&hit.DatabaseId,
			&hit.DatabaseName,
			&hit.InstanceName,
			&hit.Environment,
		)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}
