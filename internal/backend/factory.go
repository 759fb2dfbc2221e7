// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	clierrors "athenacli/cli/internal/errors"
)

// Options carries the settings of every variant; New picks the relevant half.
type Options struct {
	Athena   AthenaOptions
	Redshift RedshiftOptions
}

// Kinds lists the supported engines.
func Kinds() []Kind { return []Kind{KindAthena, KindRedshift} }

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", clierrors.New(clierrors.ConfigInvalid,
		fmt.Sprintf("unknown backend %q (expected athena or redshift)", s))
}

// New builds an unconnected backend of the given kind.
func New(kind Kind, opts Options, logger *zap.Logger) (Backend, error) {
	switch kind {
	case KindAthena:
		return NewAthena(opts.Athena, logger), nil
	case KindRedshift:
		return NewRedshift(opts.Redshift, logger), nil
	}
	_, err := ParseKind(string(kind))
	return nil, err
}
