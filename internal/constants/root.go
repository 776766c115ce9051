package constants

import "time"

const (
	AppName            = "studyloop"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/studyloop/studyloop.db"
	DefaultConfigFile  = "~/.config/studyloop/config.json"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day format used for every stored day key (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "studyloop-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "studyloop-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.studyloop"
)
