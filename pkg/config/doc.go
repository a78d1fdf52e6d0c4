// Package config loads bouncerctl and engine settings.
//
// # Configuration Sources
//
// Values are resolved in order, later sources winning:
//
//   - built-in defaults
//   - $BOUNCER_CONFIG_PATH/bouncer.yml (default /etc/bouncer/bouncer.yml)
//   - BOUNCER_* environment variables
//
// The source of every attribute is recorded and shown by
// "bouncerctl configuration show".
//
// # Key Configuration Options
//
//   - BOUNCER_CACHE_ENABLED: memoize decisions
//   - BOUNCER_CACHE_BACKEND: memory or redis
//   - BOUNCER_REDIS_ADDR: redis address for the shared cache generation
//   - BOUNCER_OWNERS: owner fields per type, e.g. user:id,post:author_id
//   - BOUNCER_LOG_LEVEL: logging verbosity
package config
