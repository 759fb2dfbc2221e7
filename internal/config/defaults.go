// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"github.com/spf13/viper"

	"athenacli/cli/internal/backend"
)

// Defaults for settings that are not connection specific.
const (
	DefaultBackend     = "athena"
	DefaultLogLevel    = "info"
	DefaultTableFormat = "table"
	DefaultAWSProfile  = "default"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)

	v.SetDefault("main.log_file", "")
	v.SetDefault("main.log_level", DefaultLogLevel)
	v.SetDefault("main.table_format", DefaultTableFormat)
	v.SetDefault("main.multi_line", false)
	v.SetDefault("main.timing", false)
	v.SetDefault("main.history_file", "")

	v.SetDefault("athena.aws_profile", "")
	v.SetDefault("athena.region", "")
	v.SetDefault("athena.aws_access_key_id", "")
	v.SetDefault("athena.aws_secret_access_key", "")
	v.SetDefault("athena.s3_staging_dir", "")
	v.SetDefault("athena.work_group", "")
	v.SetDefault("athena.role_arn", "")
	v.SetDefault("athena.catalog", backend.DefaultAthenaCatalog)
	v.SetDefault("athena.database", "")
	v.SetDefault("athena.result_reuse_enable", false)
	v.SetDefault("athena.result_reuse_minutes", backend.DefaultResultReuseMinutes)

	v.SetDefault("redshift.dsn", "")
	v.SetDefault("redshift.host", "")
	v.SetDefault("redshift.port", backend.DefaultRedshiftPort)
	v.SetDefault("redshift.database", "")
	v.SetDefault("redshift.user", "")
	v.SetDefault("redshift.password", "")
	v.SetDefault("redshift.sslmode", "")
	v.SetDefault("redshift.connect_timeout", 0)
	v.SetDefault("redshift.aws_profile", "")
	v.SetDefault("redshift.region", "")
}

// defaultFile is written on first run. Connection values are left commented
// out so the environment can still supply them.
const defaultFile = `# athenacli configuration.
# Command-line flags override these values; values left unset here fall back
# to the environment and then to the OS keychain.

# athena or redshift
backend: athena

main:
  # Diagnostic log; empty means <XDG state dir>/athenacli/athenacli.log.
  log_file: ""
  # debug, info, warn or error.
  log_level: info
  # table, vertical, csv, tsv, json or yaml.
  table_format: table
  # Keep reading lines until a statement ends with ; or \G.
  multi_line: false
  timing: false
  history_file: ""

athena:
  # aws_profile: default
  # region: us-east-1
  # s3_staging_dir: s3://my-bucket/athena-results/
  # work_group: primary
  # role_arn: arn:aws:iam::123456789012:role/analyst
  catalog: AwsDataCatalog
  # database: default
  result_reuse_enable: false
  result_reuse_minutes: 60

redshift:
  # dsn: redshift://user@example-cluster.abc123.us-east-1.redshift.amazonaws.com:5439/dev?sslmode=require
  # host: example-cluster.abc123.us-east-1.redshift.amazonaws.com
  port: 5439
  # database: dev
  # user: IAM:analyst
  # sslmode: prefer
  # connect_timeout: 10
  # aws_profile: default
  # region: us-east-1
`
