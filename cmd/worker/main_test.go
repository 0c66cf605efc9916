package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentdesk/rentdesk/internal/app"
	_ "github.com/rentdesk/rentdesk/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	main()
}
