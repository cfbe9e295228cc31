package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRunCmdStep(t *testing.T) {
	tests := []struct {
		name string
		cmd  []string
		want string
	}{
		{"npm install", []string{"npm", "install"}, "installing dependencies"},
		{"npm ci", []string{"npm", "ci"}, "installing dependencies"},
		{"yarn add", []string{"yarn", "add", "react"}, "installing dependencies"},
		{"npx create react app", []string{"npx", "create-react-app", "myapp"}, "scaffolding app"},
		{"npm create vite", []string{"npm", "create", "vite@latest"}, "scaffolding app"},
		{"npm run build", []string{"npm", "run", "build"}, "building project"},
		{"npm run dev", []string{"npm", "run", "dev"}, "starting dev server"},
		{"npm start", []string{"npm", "start"}, "starting dev server"},
		{"npm run lint", []string{"npm", "run", "lint"}, "running package manager task"},
		{"not a package manager", []string{"python3", "main.py"}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRunCmdStep(tt.cmd))
		})
	}
}

func TestIsNoisyInstallCommand(t *testing.T) {
	assert.True(t, IsNoisyInstallCommand([]string{"npm", "install"}))
	assert.True(t, IsNoisyInstallCommand([]string{"npm", "i", "express"}))
	assert.True(t, IsNoisyInstallCommand([]string{"npx", "create-react-app", "app"}))
	assert.True(t, IsNoisyInstallCommand([]string{"pnpm", "add", "vite"}))
	assert.False(t, IsNoisyInstallCommand([]string{"npm", "run", "dev"}))
	assert.False(t, IsNoisyInstallCommand([]string{"pip", "install", "requests"}))
	assert.False(t, IsNoisyInstallCommand(nil))
}

func TestSummarizeInstallOutput(t *testing.T) {
	stdout := "npm warn deprecated something\nadded 214 packages in 12s\nfound 0 vulnerabilities\n"
	got := SummarizeInstallOutput(stdout, "")
	assert.Equal(t, "added 214 packages in 12s; found 0 vulnerabilities", got)

	t.Run("deduplicates and caps at three", func(t *testing.T) {
		stdout := "added 1 packages\nadded 1 packages\nup to date\naudited 5 packages\ndone in 2s\n"
		got := SummarizeInstallOutput(stdout, "")
		assert.Equal(t, "added 1 packages; up to date; audited 5 packages", got)
	})

	t.Run("no matching lines", func(t *testing.T) {
		assert.Empty(t, SummarizeInstallOutput("compiling...\nlinking...\n", ""))
	})
}
