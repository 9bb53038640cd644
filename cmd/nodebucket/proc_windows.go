//go:build windows

package main

import "os/exec"

func configureServerProc(cmd *exec.Cmd) {}
