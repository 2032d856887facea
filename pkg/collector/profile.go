package collector

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sqlfleet/sql-inventory/pkg/api"
)

// Policy carries the deployment-wide connection settings. They are fixed per
// process, not per instance.
type Policy struct {
	Encrypt                bool
	TrustServerCertificate bool
	DialTimeout            time.Duration
	RequestTimeout         time.Duration
}

func DefaultPolicy(encrypt, trustCert bool) Policy {
	return Policy{
		Encrypt:                encrypt,
		TrustServerCertificate: trustCert,
		DialTimeout:            15 * time.Second,
		RequestTimeout:         30 * time.Second,
	}
}

// Profile is a ready-to-dial connection descriptor for one instance,
// optionally narrowed to a single database.
type Profile struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Policy   Policy
}

// BuildProfile decrypts the instance credential and combines it with the
// fixed connection policy. No I/O happens here.
func BuildProfile(instance api.Instance, vault *api.Vault, policy Policy) Profile {
	return Profile{
		Host:     instance.Host,
		Port:     instance.Port,
		Username: instance.AuthUsername,
		Password: vault.Decrypt(instance.AuthPassword),
		Policy:   policy,
	}
}

// Narrow returns a copy of the profile scoped to one database.
func (p Profile) Narrow(database string) Profile {
	p.Database = database
	return p
}

// ConnectionString renders the profile as a go-mssqldb sqlserver:// URL.
func (p Profile) ConnectionString() string {
	query := url.Values{}
	// encrypt=false still negotiates TLS for the login packet; only the full
	// session encryption is turned off.
	query.Set("encrypt", strconv.FormatBool(p.Policy.Encrypt))
	query.Set("trustservercertificate", strconv.FormatBool(p.Policy.TrustServerCertificate))
	query.Set("dial timeout", strconv.Itoa(int(p.Policy.DialTimeout.Seconds())))
	query.Set("connection timeout", strconv.Itoa(int(p.Policy.RequestTimeout.Seconds())))
	if p.Database != "" {
		query.Set("database", p.Database)
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(p.Username, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
