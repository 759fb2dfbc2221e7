// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"iter"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	clierrors "athenacli/cli/internal/errors"
)

// Redshift connection defaults.
const (
	DefaultRedshiftPort     = 5439
	DefaultRedshiftDatabase = "dev"
	DefaultRedshiftSSLMode  = "prefer"
	DefaultRedshiftRegion   = "us-east-1"

	// IAMUserPrefix marks a user that authenticates with IAM credentials.
	IAMUserPrefix = "IAM:"

	credentialDuration = 3600
)

const (
	databasesQuery = `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`

	tablesQuery = `SELECT schemaname, tablename FROM pg_tables
WHERE schemaname NOT IN ('pg_catalog', 'information_schema', 'pg_internal')
UNION ALL
SELECT schemaname, viewname FROM pg_views
WHERE schemaname NOT IN ('pg_catalog', 'information_schema', 'pg_internal')
ORDER BY 1, 2`

	// Columns are limited to the relations tablesQuery lists.
	columnsQuery = `SELECT c.table_schema, c.table_name, c.column_name
FROM information_schema.columns c
JOIN (
  SELECT schemaname, tablename AS relname FROM pg_tables
  UNION ALL
  SELECT schemaname, viewname FROM pg_views
) r ON r.schemaname = c.table_schema AND r.relname = c.table_name
WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_internal')
ORDER BY c.table_schema, c.table_name, c.ordinal_position`
)

// clusterCredentialsAPI is the subset of the Redshift control-plane client used
// to mint temporary database credentials.
type clusterCredentialsAPI interface {
	GetClusterCredentials(ctx context.Context, in *redshift.GetClusterCredentialsInput, optFns ...func(*redshift.Options)) (*redshift.GetClusterCredentialsOutput, error)
}

// RedshiftOptions configures the Redshift backend.
type RedshiftOptions struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration

	// Profile and Region select the AWS credentials used for IAM authentication.
	Profile string
	Region  string
}

// Redshift is the Backend for Amazon Redshift.
type Redshift struct {
	opts   RedshiftOptions
	user   string
	useIAM bool
	logger *zap.Logger

	newCredentialsClient func(ctx context.Context) (clusterCredentialsAPI, error)

	mu       sync.RWMutex
	pool     *pgxpool.Pool
	database string
}

// NewRedshift builds an unconnected Redshift backend. IAM authentication is
// used when the user carries the "IAM:" prefix or no password is supplied.
func NewRedshift(opts RedshiftOptions, logger *zap.Logger) *Redshift {
	if opts.Port == 0 {
		opts.Port = DefaultRedshiftPort
	}
	if opts.Database == "" {
		opts.Database = DefaultRedshiftDatabase
	}
	if opts.SSLMode == "" {
		opts.SSLMode = DefaultRedshiftSSLMode
	}
	if opts.Region == "" {
		opts.Region = DefaultRedshiftRegion
	}

	user := opts.User
	useIAM := false
	if strings.HasPrefix(user, IAMUserPrefix) {
		user = strings.TrimPrefix(user, IAMUserPrefix)
		useIAM = true
	}
	if opts.Password == "" {
		useIAM = true
	}

	r := &Redshift{
		opts:     opts,
		user:     user,
		useIAM:   useIAM,
		logger:   orNop(logger),
		database: opts.Database,
	}
	r.newCredentialsClient = r.defaultCredentialsClient
	return r
}

func (r *Redshift) defaultCredentialsClient(ctx context.Context) (clusterCredentialsAPI, error) {
	cfg, err := loadAWSConfig(ctx, awsSettings{Profile: r.opts.Profile, Region: r.opts.Region})
	if err != nil {
		return nil, err
	}
	return redshift.NewFromConfig(cfg), nil
}

func (r *Redshift) Kind() Kind { return KindRedshift }

func (r *Redshift) Database() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.database
}

// Host returns the configured endpoint host.
func (r *Redshift) Host() string { return r.opts.Host }

// Port returns the configured endpoint port.
func (r *Redshift) Port() int { return r.opts.Port }

// User returns the database user without the IAM prefix.
func (r *Redshift) User() string { return r.user }

// UsesIAM reports whether temporary cluster credentials are used.
func (r *Redshift) UsesIAM() bool { return r.useIAM }

func (r *Redshift) Connect(ctx context.Context, database string) error {
	r.mu.RLock()
	current := r.database
	connected := r.pool != nil
	r.mu.RUnlock()

	target := database
	if target == "" {
		target = current
	}
	if connected && target == current {
		return nil
	}

	cfg, err := r.poolConfig(target)
	if err != nil {
		if clierrors.Is(err, clierrors.AuthenticationFailed) {
			return err
		}
		return clierrors.Wrap(clierrors.ConnectionFailed, "invalid Redshift connection settings", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return clierrors.Wrap(clierrors.ConnectionFailed, "could not connect to Redshift", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if clierrors.Is(err, clierrors.AuthenticationFailed) {
			return err
		}
		return clierrors.Wrap(clierrors.ConnectionFailed, "could not connect to Redshift", err)
	}

	r.mu.Lock()
	old := r.pool
	r.pool = pool
	r.database = target
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}

	r.logger.Info("connected", zap.String("backend", string(KindRedshift)),
		zap.String("host", r.opts.Host), zap.String("database", target), zap.Bool("iam", r.useIAM))
	return nil
}

// poolConfig builds a single-connection pool configuration for database.
// The single connection keeps statements of one session strictly ordered.
func (r *Redshift) poolConfig(database string) (*pgxpool.Config, error) {
	if r.opts.Host == "" {
		if r.useIAM {
			return nil, clierrors.New(clierrors.AuthenticationFailed, "cannot derive cluster identifier from an empty host")
		}
		return nil, clierrors.New(clierrors.ConfigInvalid, "no Redshift host configured")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(r.opts.Host, strconv.Itoa(r.opts.Port)),
		Path:   "/" + database,
	}
	if r.user != "" {
		u.User = url.User(r.user)
	}
	q := url.Values{}
	q.Set("sslmode", r.opts.SSLMode)
	if r.opts.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(r.opts.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	cfg, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 1
	cfg.MinConns = 0
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	if r.opts.Password != "" && !r.useIAM {
		cfg.ConnConfig.Password = r.opts.Password
	}
	if r.useIAM {
		cfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			user, password, err := r.clusterCredentials(ctx, database)
			if err != nil {
				return err
			}
			cc.User = user
			cc.Password = password
			return nil
		}
	}
	return cfg, nil
}

// clusterCredentials asks the Redshift control plane for temporary
// credentials scoped to database.
func (r *Redshift) clusterCredentials(ctx context.Context, database string) (string, string, error) {
	clusterID := clusterIdentifier(r.opts.Host)
	if clusterID == "" {
		return "", "", clierrors.New(clierrors.AuthenticationFailed, "cannot derive cluster identifier from an empty host")
	}
	client, err := r.newCredentialsClient(ctx)
	if err != nil {
		return "", "", clierrors.Wrap(clierrors.AuthenticationFailed, "could not load AWS credentials", err)
	}
	out, err := client.GetClusterCredentials(ctx, &redshift.GetClusterCredentialsInput{
		ClusterIdentifier: aws.String(clusterID),
		DbUser:            aws.String(r.user),
		DbName:            aws.String(database),
		DurationSeconds:   aws.Int32(credentialDuration),
		AutoCreate:        aws.Bool(false),
	})
	if err != nil {
		return "", "", clierrors.Wrap(clierrors.AuthenticationFailed,
			"could not obtain cluster credentials; check redshift:GetClusterCredentials permission", err)
	}
	r.logger.Debug("obtained temporary cluster credentials", zap.String("cluster", clusterID))
	return aws.ToString(out.DbUser), aws.ToString(out.DbPassword), nil
}

// clusterIdentifier returns the first DNS label of host, which Redshift uses
// as the cluster identifier.
func clusterIdentifier(host string) string {
	host = strings.TrimSpace(host)
	if i := strings.Index(host, "."); i >= 0 {
		return host[:i]
	}
	return host
}

func (r *Redshift) Close() error {
	r.mu.Lock()
	pool := r.pool
	r.pool = nil
	r.mu.Unlock()
	if pool != nil {
		pool.Close()
	}
	return nil
}

func (r *Redshift) Cursor() (Cursor, error) {
	pool := r.currentPool()
	if pool == nil {
		return nil, clierrors.New(clierrors.NotConnected, "not connected to Redshift")
	}
	return &redshiftCursor{pool: pool}, nil
}

func (r *Redshift) currentPool() *pgxpool.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool
}

func (r *Redshift) Tables(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, release, err := r.query(ctx, tablesQuery)
		if err != nil {
			yield("", err)
			return
		}
		defer release()
		for name, err := range qualifiedRelations(rows) {
			if !yield(name, err) || err != nil {
				return
			}
		}
	}
}

func (r *Redshift) TableColumns(ctx context.Context) iter.Seq2[Column, error] {
	return func(yield func(Column, error) bool) {
		rows, release, err := r.query(ctx, columnsQuery)
		if err != nil {
			yield(Column{}, err)
			return
		}
		defer release()
		for col, err := range qualifiedColumns(rows) {
			if !yield(col, err) || err != nil {
				return
			}
		}
	}
}

func (r *Redshift) Databases(ctx context.Context) ([]string, error) {
	rows, release, err := r.query(ctx, databasesQuery)
	if err != nil {
		return nil, err
	}
	defer release()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read database list", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read database list", err)
	}
	return out, nil
}

// query acquires the session connection and runs q on it. release must be
// called once the rows are consumed.
func (r *Redshift) query(ctx context.Context, q string) (pgx.Rows, func(), error) {
	pool := r.currentPool()
	if pool == nil {
		return nil, nil, clierrors.New(clierrors.NotConnected, "not connected to Redshift")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not acquire connection", err)
	}
	rows, err := conn.Query(ctx, q)
	if err != nil {
		conn.Release()
		return nil, nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "metadata query failed", err)
	}
	return rows, func() {
		rows.Close()
		conn.Release()
	}, nil
}

// FormatStatistics returns "" because Redshift reports no scan statistics.
func (r *Redshift) FormatStatistics(Cursor) string { return "" }

func (r *Redshift) SupportsSpecialCommand(string) bool { return false }

func (r *Redshift) PreQualifiedIdentifiers() bool { return true }

// scanner is the row-reading subset of pgx.Rows.
type scanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// qualifiedRelations reads (schema, name) rows and yields "schema.name".
func qualifiedRelations(rows scanner) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for rows.Next() {
			var schema, name string
			if err := rows.Scan(&schema, &name); err != nil {
				yield("", clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read table list", err))
				return
			}
			if !yield(schema+"."+name, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read table list", err))
		}
	}
}

// qualifiedColumns reads (schema, table, column) rows and yields columns keyed
// by "schema.table".
func qualifiedColumns(rows scanner) iter.Seq2[Column, error] {
	return func(yield func(Column, error) bool) {
		for rows.Next() {
			var schema, table, column string
			if err := rows.Scan(&schema, &table, &column); err != nil {
				yield(Column{}, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read column list", err))
				return
			}
			if !yield(Column{Table: schema + "." + table, Name: column}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Column{}, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "could not read column list", err))
		}
	}
}
