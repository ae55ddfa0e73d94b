// Package cache provides the saint.Cache pools backing the opts store:
// an in-process memory pool and a pool persisted in a database table.
package cache
