package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCmdGlobal_Run_RejectsEmptyCommand(t *testing.T) {
	g := &cmdGlobal{}

	err := g.run(nil)

	assert.ErrorContains(t, err, "a command is required")
}

func TestCmdGlobal_Run_RejectsInvalidCgroupVersion(t *testing.T) {
	g := &cmdGlobal{cgroupVersion: 3}

	err := g.run([]string{"/bin/true"})

	assert.ErrorContains(t, err, "cgroup_version")
}
