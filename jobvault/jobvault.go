// Package jobvault holds project-wide defaults shared by the config and
// storage packages.
package jobvault

const (
	DefaultAppName      = "jobvault"
	DefaultConfigPath   = "/etc/jobvault"
	DefaultNamespace    = "default"
	DefaultDatabaseDir  = "./data"
	DefaultDatabasePath = "./data/jobvault.db"
)
