// Package models defines the CashTrack domain types as exchanged with the
// REST API: transactions, categories, users, statistics, report metadata and
// the history log, plus small helpers for list decoding and query filters.
package models
