// Package attribution works out who the agent should regard as its creator
// when none is configured.
package attribution

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Fallback is used when nothing on the machine names a person.
const Fallback = "the Architect"

var (
	cachedName string
	once       sync.Once
)

// DetectCreator returns the best available name for the person running the
// agent. Checks in order: git config user.name, $USER, $USERNAME, Fallback.
// The result is cached after first call.
func DetectCreator() string {
	once.Do(func() {
		cachedName = detect(gitUserName)
	})
	return cachedName
}

func detect(git func() string) string {
	if name := git(); name != "" {
		return name
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" && name != "root" {
			return name
		}
	}
	return Fallback
}

// gitUserName runs `git config --get user.name` and returns the trimmed result.
// Returns empty string on any error.
func gitUserName() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "config", "--get", "user.name").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
