//go:build !unix

package runner

import "os/exec"

// killProcessGroup keeps the default CommandContext behavior of killing the
// direct child; WaitDelay still bounds pipes held by its descendants.
func killProcessGroup(cmd *exec.Cmd) {}
