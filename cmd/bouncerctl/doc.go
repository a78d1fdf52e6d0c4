// Command bouncerctl administers a bouncer authorization database.
//
// # Quick Start
//
//	# Create the schema
//	bouncerctl db migrate
//
//	# Load roles, abilities and grants
//	bouncerctl seed load permissions.yml
//
//	# Grant and check
//	bouncerctl grant allow role:editor publish --type post
//	bouncerctl role assign editor 42
//	bouncerctl check 42 publish --type post --id 7
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - BOUNCER_CONFIG_PATH: directory holding bouncer.yml
//   - BOUNCER_*: configuration overrides, see "bouncerctl configuration show"
package main
