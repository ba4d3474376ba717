//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/package-installer/internal/domain/install"
)

// errUnknownUser is returned when no username source is available.
var errUnknownUser = errors.New("username is unknown")

// usernameVariables are consulted when the account database has no entry for
// the current user, as on some build agents and containers.
//
//nolint:gochecknoglobals // Fixed lookup order.
var usernameVariables = []string{"USER", "USERNAME", "LOGNAME"}

// actorLookup resolves the parts of an actor; tests replace it.
type actorLookup struct {
	hostname func() (string, error)
	current  func() (*user.User, error)
	getenv   func(string) string
}

// DetectActor returns who is installing the package, for the host history.
// Parts that cannot be detected are left empty and reported in the error;
// the actor is never nil.
func DetectActor() (*install.Actor, error) {
	return actorLookup{
		hostname: os.Hostname,
		current:  user.Current,
		getenv:   os.Getenv,
	}.detect()
}

func (l actorLookup) detect() (*install.Actor, error) {
	var (
		actor install.Actor
		errs  []error
	)

	hostname, err := l.hostname()
	if err != nil {
		errs = append(errs, fmt.Errorf("hostname: %w", err))
	} else {
		actor.Hostname = hostname
	}

	currentUser, err := l.current()
	if err == nil && currentUser.Username != "" {
		actor.Username = currentUser.Username
	} else {
		actor.Username = l.usernameFromEnv()

		if actor.Username == "" {
			errs = append(errs, fmt.Errorf("current user: %w", errors.Join(err, errUnknownUser)))
		}
	}

	return &actor, errors.Join(errs...)
}

func (l actorLookup) usernameFromEnv() string {
	for _, name := range usernameVariables {
		if value := l.getenv(name); value != "" {
			return value
		}
	}

	return ""
}
