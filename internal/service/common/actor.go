//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os/user"
)

// DetectLecturer returns the login name of the current OS user.
func DetectLecturer() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	return currentUser.Username, nil
}
