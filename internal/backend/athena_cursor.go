// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"go.uber.org/zap"

	clierrors "athenacli/cli/internal/errors"
)

const resultsPageSize = 1000

// athenaCursor runs one query at a time and buffers the full result.
type athenaCursor struct {
	client       athenaAPI
	logger       *zap.Logger
	catalog      string
	database     string
	stagingDir   string
	workGroup    string
	reuse        bool
	reuseMinutes int
	poll         time.Duration

	queryID        string
	columns        []string
	rows           [][]any
	outputLocation string
	scannedBytes   int64
	execMillis     int64
}

func (c *athenaCursor) Execute(ctx context.Context, query string) error {
	c.reset()

	in := &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		QueryExecutionContext: &types.QueryExecutionContext{
			Catalog: aws.String(c.catalog),
		},
	}
	if c.database != "" {
		in.QueryExecutionContext.Database = aws.String(c.database)
	}
	if c.stagingDir != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(c.stagingDir)}
	}
	if c.workGroup != "" {
		in.WorkGroup = aws.String(c.workGroup)
	}
	if c.reuse {
		in.ResultReuseConfiguration = &types.ResultReuseConfiguration{
			ResultReuseByAgeConfiguration: &types.ResultReuseByAgeConfiguration{
				Enabled:         true,
				MaxAgeInMinutes: aws.Int32(int32(c.reuseMinutes)),
			},
		}
	}

	out, err := c.client.StartQueryExecution(ctx, in)
	if err != nil {
		return clierrors.Wrap(clierrors.StatementFailed, "could not start query", err)
	}
	c.queryID = aws.ToString(out.QueryExecutionId)
	c.logger.Debug("query started", zap.String("query_execution_id", c.queryID))

	qe, err := c.wait(ctx)
	if err != nil {
		return err
	}
	return c.collect(ctx, qe)
}

// wait polls the execution until it reaches a terminal state. Cancelling ctx
// asks Athena to stop the query.
func (c *athenaCursor) wait(ctx context.Context) (*types.QueryExecution, error) {
	for {
		out, err := c.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(c.queryID),
		})
		if err != nil {
			if ctx.Err() != nil {
				c.stop()
				return nil, clierrors.Wrap(clierrors.StatementFailed, "query cancelled", ctx.Err())
			}
			return nil, clierrors.Wrap(clierrors.StatementFailed, "could not poll query", err)
		}

		qe := out.QueryExecution
		if qe != nil && qe.Status != nil {
			switch qe.Status.State {
			case types.QueryExecutionStateSucceeded:
				return qe, nil
			case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
				reason := aws.ToString(qe.Status.StateChangeReason)
				if reason == "" {
					reason = strings.ToLower(string(qe.Status.State))
				}
				return nil, clierrors.New(clierrors.StatementFailed, reason)
			}
		}

		select {
		case <-ctx.Done():
			c.stop()
			return nil, clierrors.Wrap(clierrors.StatementFailed, "query cancelled", ctx.Err())
		case <-time.After(c.poll):
		}
	}
}

func (c *athenaCursor) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.client.StopQueryExecution(ctx, &athena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(c.queryID),
	}); err != nil {
		c.logger.Warn("could not stop query", zap.String("query_execution_id", c.queryID), zap.Error(err))
	}
}

func (c *athenaCursor) collect(ctx context.Context, qe *types.QueryExecution) error {
	if qe.Statistics != nil {
		c.scannedBytes = aws.ToInt64(qe.Statistics.DataScannedInBytes)
		c.execMillis = aws.ToInt64(qe.Statistics.EngineExecutionTimeInMillis)
	}
	if qe.ResultConfiguration != nil {
		c.outputLocation = aws.ToString(qe.ResultConfiguration.OutputLocation)
	}
	skipHeader := qe.StatementType == types.StatementTypeDml

	var (
		colTypes []string
		token    *string
		first    = true
	)
	for {
		out, err := c.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(c.queryID),
			MaxResults:       aws.Int32(resultsPageSize),
			NextToken:        token,
		})
		if err != nil {
			return clierrors.Wrap(clierrors.StatementFailed, "could not fetch results", err)
		}
		if out.ResultSet == nil {
			break
		}

		if first && out.ResultSet.ResultSetMetadata != nil {
			for _, ci := range out.ResultSet.ResultSetMetadata.ColumnInfo {
				c.columns = append(c.columns, aws.ToString(ci.Name))
				colTypes = append(colTypes, strings.ToLower(aws.ToString(ci.Type)))
			}
		}

		rows := out.ResultSet.Rows
		if first && skipHeader && len(rows) > 0 {
			rows = rows[1:]
		}
		first = false

		for _, r := range rows {
			c.rows = append(c.rows, convertRow(r.Data, colTypes))
		}

		if out.NextToken == nil || aws.ToString(out.NextToken) == "" {
			break
		}
		token = out.NextToken
	}
	return nil
}

// convertRow maps Athena's string datums onto Go values using the column types.
func convertRow(data []types.Datum, colTypes []string) []any {
	row := make([]any, len(data))
	for i, d := range data {
		if d.VarCharValue == nil {
			continue
		}
		v := *d.VarCharValue
		typ := ""
		if i < len(colTypes) {
			typ = colTypes[i]
		}
		row[i] = convertValue(v, typ)
	}
	return row
}

func convertValue(v, typ string) any {
	switch typ {
	case "tinyint", "smallint", "integer", "int", "bigint":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "double", "float", "real":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

func (c *athenaCursor) Description() []string { return c.columns }

func (c *athenaCursor) FetchAll(context.Context) ([][]any, error) {
	rows := c.rows
	c.rows = nil
	return rows, nil
}

func (c *athenaCursor) Close() error {
	c.rows = nil
	return nil
}

func (c *athenaCursor) OutputLocation() string     { return c.outputLocation }
func (c *athenaCursor) DataScannedBytes() int64    { return c.scannedBytes }
func (c *athenaCursor) ExecutionTimeMillis() int64 { return c.execMillis }

// QueryExecutionID returns the id of the last started query.
func (c *athenaCursor) QueryExecutionID() string { return c.queryID }

func (c *athenaCursor) reset() {
	c.queryID = ""
	c.columns = nil
	c.rows = nil
	c.outputLocation = ""
	c.scannedBytes = 0
	c.execMillis = 0
}
