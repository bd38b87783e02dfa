//go:build tools

// This file ensures tool dependencies are kept in sync. To install the
// following tools at the version used by this repo run:
// $ go generate -tags tools tools/tools.go

package tools

//go:generate go install mvdan.cc/gofumpt

import (
	_ "mvdan.cc/gofumpt"
)
