// Package config loads, normalizes, and validates favsync configuration.
//
// Configuration is read from a TOML file, then overlaid with environment
// variables (FAVSYNC_SERVER_URL, FAVSYNC_API_KEY, FAVSYNC_USER_ID,
// FAVSYNC_SYNC_DIR). A .env file in the working directory is honored.
// Validation failures are fatal before any reconciliation starts.
package config
