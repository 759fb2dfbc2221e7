// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"go.uber.org/zap"

	clierrors "athenacli/cli/internal/errors"
)

// DefaultAthenaCatalog is used when no catalog is configured.
const DefaultAthenaCatalog = "AwsDataCatalog"

// DefaultResultReuseMinutes is the default maximum age of reusable results.
const DefaultResultReuseMinutes = 60

const defaultPollInterval = 200 * time.Millisecond

// athenaAPI is the subset of the Athena client used by the backend.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, in *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, in *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, in *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
	StopQueryExecution(ctx context.Context, in *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error)
}

// AthenaOptions configures the Athena backend.
type AthenaOptions struct {
	Profile         string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string

	S3StagingDir string
	WorkGroup    string

	Catalog  string
	Database string

	ResultReuseEnable  bool
	ResultReuseMinutes int
}

// Athena is the Backend for Amazon Athena.
type Athena struct {
	opts   AthenaOptions
	logger *zap.Logger

	newClient    func(ctx context.Context, opts AthenaOptions) (athenaAPI, error)
	pollInterval time.Duration

	mu       sync.RWMutex
	client   athenaAPI
	catalog  string
	database string
}

// NewAthena builds an unconnected Athena backend. A database given as
// "catalog.database" overrides the configured catalog.
func NewAthena(opts AthenaOptions, logger *zap.Logger) *Athena {
	if opts.Catalog == "" {
		opts.Catalog = DefaultAthenaCatalog
	}
	if opts.ResultReuseMinutes <= 0 {
		opts.ResultReuseMinutes = DefaultResultReuseMinutes
	}
	catalog, database := splitCatalog(opts.Catalog, opts.Database)
	return &Athena{
		opts:         opts,
		logger:       orNop(logger),
		newClient:    newAthenaClient,
		pollInterval: defaultPollInterval,
		catalog:      catalog,
		database:     database,
	}
}

func newAthenaClient(ctx context.Context, opts AthenaOptions) (athenaAPI, error) {
	cfg, err := loadAWSConfig(ctx, awsSettings{
		Profile:         opts.Profile,
		Region:          opts.Region,
		AccessKeyID:     opts.AccessKeyID,
		SecretAccessKey: opts.SecretAccessKey,
		RoleARN:         opts.RoleARN,
	})
	if err != nil {
		return nil, err
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("resolve AWS credentials: %w", err)
	}
	return athena.NewFromConfig(cfg), nil
}

// splitCatalog splits "catalog.database" into its parts; a bare name keeps
// the fallback catalog.
func splitCatalog(fallback, database string) (string, string) {
	if i := strings.Index(database, "."); i > 0 {
		return database[:i], database[i+1:]
	}
	return fallback, database
}

func (a *Athena) Kind() Kind { return KindAthena }

func (a *Athena) Database() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.database
}

// Catalog returns the active data catalog.
func (a *Athena) Catalog() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalog
}

// Region returns the configured AWS region.
func (a *Athena) Region() string { return a.opts.Region }

func (a *Athena) Connect(ctx context.Context, database string) error {
	a.mu.RLock()
	curCatalog, curDB := a.catalog, a.database
	connected := a.client != nil
	a.mu.RUnlock()

	catalog, db := curCatalog, curDB
	if database != "" {
		catalog, db = splitCatalog(curCatalog, database)
	}
	if connected && catalog == curCatalog && db == curDB {
		return nil
	}

	client, err := a.newClient(ctx, a.opts)
	if err != nil {
		return clierrors.Wrap(clierrors.ConnectionFailed, "could not connect to Athena", err)
	}

	a.mu.Lock()
	a.client = client
	a.catalog = catalog
	a.database = db
	a.mu.Unlock()

	a.logger.Info("connected", zap.String("backend", string(KindAthena)),
		zap.String("catalog", catalog), zap.String("database", db))
	return nil
}

func (a *Athena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = nil
	return nil
}

func (a *Athena) Cursor() (Cursor, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.client == nil {
		return nil, clierrors.New(clierrors.NotConnected, "not connected to Athena")
	}
	return &athenaCursor{
		client:       a.client,
		logger:       a.logger,
		catalog:      a.catalog,
		database:     a.database,
		stagingDir:   a.opts.S3StagingDir,
		workGroup:    a.opts.WorkGroup,
		reuse:        a.opts.ResultReuseEnable,
		reuseMinutes: a.opts.ResultReuseMinutes,
		poll:         a.pollInterval,
	}, nil
}

func (a *Athena) Tables(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := queryRows(ctx, a, "SHOW TABLES")
		if err != nil {
			yield("", err)
			return
		}
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			if !yield(fmt.Sprint(row[0]), nil) {
				return
			}
		}
	}
}

func (a *Athena) TableColumns(ctx context.Context) iter.Seq2[Column, error] {
	return func(yield func(Column, error) bool) {
		q := fmt.Sprintf(
			"SELECT table_name, column_name FROM information_schema.columns "+
				"WHERE table_schema = '%s' ORDER BY table_name, ordinal_position",
			quoteLiteral(a.Database()),
		)
		rows, err := queryRows(ctx, a, q)
		if err != nil {
			yield(Column{}, err)
			return
		}
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			if !yield(Column{Table: fmt.Sprint(row[0]), Name: fmt.Sprint(row[1])}, nil) {
				return
			}
		}
	}
}

func (a *Athena) Databases(ctx context.Context) ([]string, error) {
	rows, err := queryRows(ctx, a, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			out = append(out, fmt.Sprint(row[0]))
		}
	}
	return out, nil
}

func (a *Athena) FormatStatistics(cur Cursor) string {
	st, ok := cur.(ExecutionStats)
	if !ok {
		return ""
	}
	scanned := st.DataScannedBytes()
	return fmt.Sprintf("\nExecution time: %d ms, Data scanned: %s, Approximate cost: $%.2f",
		st.ExecutionTimeMillis(), HumanizeBytes(scanned), ApproximateCost(scanned))
}

func (a *Athena) SupportsSpecialCommand(name string) bool {
	switch name {
	case OutputLocation, QueryCost:
		return true
	}
	return false
}

func (a *Athena) PreQualifiedIdentifiers() bool { return false }

// quoteLiteral escapes s for use inside a single-quoted SQL literal.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
