package install

import (
	"fmt"
	"time"
)

// Actor identifies who requested an installation.
type Actor struct {
	// Hostname is the machine the operator ran package-installer on.
	Hostname string `yaml:"hostname"`
	// Username is the system user who ran package-installer.
	Username string `yaml:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Mode tells the platform how to treat the package.
type Mode string

// ModeInstall applies the package to the site.
const ModeInstall Mode = "install"

// Action selects the platform installer flavour.
type Action string

// ActionUpgrade applies an update package as an upgrade.
const ActionUpgrade Action = "upgrade"

// Level is the severity of a contingency entry.
type Level string

// Contingency entry levels reported by the platform.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ContingencyEntry is a result record produced by the platform for one unit of change.
// Its content is owned by the platform; only Level is interpreted here.
type ContingencyEntry struct {
	Level    Level  `yaml:"level"`
	Action   string `yaml:"action,omitempty"`
	Behavior string `yaml:"behavior,omitempty"`
	ItemPath string `yaml:"item_path,omitempty"`
	Message  string `yaml:"message"`
}

// Metadata is the package description returned by the platform before installation.
type Metadata struct {
	PackageName string            `yaml:"package_name"`
	Version     string            `yaml:"version,omitempty"`
	Author      string            `yaml:"author,omitempty"`
	Readme      string            `yaml:"readme,omitempty"`
	Attributes  map[string]string `yaml:"attributes,omitempty"`
}

// Status is the final state of an installation.
type Status string

// Installation states as reported by a connector.
const (
	StatusOK    Status = "ok"
	StatusFault Status = "fault"
)

// Outcome is the document a connector writes back to the host after one installation.
type Outcome struct {
	Status        Status             `yaml:"status"`
	HistoryPath   string             `yaml:"history_path,omitempty"`
	HasPostAction bool               `yaml:"has_post_action,omitempty"`
	Entries       []ContingencyEntry `yaml:"entries,omitempty"`
	Fault         *Fault             `yaml:"fault,omitempty"`
}

// Fault describes a failure that happened on the remote host.
// Only one level of Inner is surfaced to the operator.
type Fault struct {
	Message string `yaml:"message"`
	Type    string `yaml:"type"`
	Stack   string `yaml:"stack,omitempty"`
	Inner   *Fault `yaml:"inner,omitempty"`
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f == nil {
		return "<nil fault>"
	}

	return fmt.Sprintf("%s(%s)", f.Message, f.Type)
}

// Record is one entry of the host installation history.
type Record struct {
	ID          string    `yaml:"id"`
	PackagePath string    `yaml:"package_path"`
	Actor       *Actor    `yaml:"actor,omitempty"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
	Status      Status    `yaml:"status"`
	Entries     int       `yaml:"entries"`
	Warnings    int       `yaml:"warnings"`
	Errors      int       `yaml:"errors"`
	HistoryPath string    `yaml:"history_path,omitempty"`
	Fault       string    `yaml:"fault,omitempty"`
}

// Duration returns how long the installation took.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// CountEntries returns the number of warning and error entries.
func CountEntries(entries []ContingencyEntry) (warnings, errors int) {
	for _, entry := range entries {
		switch entry.Level {
		case LevelWarning:
			warnings++
		case LevelError:
			errors++
		case LevelInfo:
		}
	}

	return warnings, errors
}
