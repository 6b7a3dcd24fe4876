// Package maintenance runs the server's scheduled housekeeping with
// robfig/cron: purging expired revoked-token rows and uploading catalogue
// snapshots. The job bodies are plain functions so spicectl can run them
// on demand.
package maintenance
