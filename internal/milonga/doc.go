// Package milonga counts the dance events running today in Buenos Aires.
//
// The Counter keeps the last count scraped from the upstream listing page and
// refreshes it at most once per validity window. Refresh failures are logged
// and the previous count keeps being served, so callers always get a number.
package milonga
