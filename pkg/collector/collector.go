package collector

import (
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/sqlfleet/sql-inventory/pkg/api"
)

// Collector talks to remote SQL Server instances. It satisfies api.Harvester:
// remote failures come back inside the snapshots, never as errors.
type Collector struct {
	vault  *api.Vault
	policy Policy
}

func New(vault *api.Vault, policy Policy) *Collector {
	return &Collector{
		vault:  vault,
		policy: policy,
	}
}

func (c *Collector) open(profile Profile) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", profile.ConnectionString())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Probe opens a connection, closes it immediately, and classifies the
// instance as UP or DOWN. Any failure message is captured verbatim.
func (c *Collector) Probe(instance api.Instance) api.ProbeResult {
	db, err := c.open(BuildProfile(instance, c.vault, c.policy))
	if err != nil {
		msg := err.Error()
		return api.ProbeResult{Status: api.StatusDown, Error: &msg}
	}
	db.Close()

	return api.ProbeResult{Status: api.StatusUp}
}
