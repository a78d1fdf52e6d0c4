// Package cache memoizes authorization decisions.
//
// Invalidation is coarse and generation based. Every mutation bumps a
// generation counter; a Decisions memo that observes a new generation drops
// everything it holds. A decision computed under generation g is only
// stored if the generation is still g afterwards, so a check racing a
// mutation can never leave a stale entry behind.
//
// The generation is local to the process (LocalGeneration) or shared in
// Redis (RedisGeneration) when several processes serve one database.
package cache
