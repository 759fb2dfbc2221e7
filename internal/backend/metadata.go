// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"

	clierrors "athenacli/cli/internal/errors"
)

// queryRows runs q on a fresh cursor of b and returns every row.
// Failures are reported as metadata discovery errors.
func queryRows(ctx context.Context, b interface{ Cursor() (Cursor, error) }, q string) ([][]any, error) {
	cur, err := b.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	if err := cur.Execute(ctx, q); err != nil {
		return nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "metadata query failed", err)
	}
	rows, err := cur.FetchAll(ctx)
	if err != nil {
		return nil, clierrors.Wrap(clierrors.MetadataDiscoveryFailed, "metadata query failed", err)
	}
	return rows, nil
}
