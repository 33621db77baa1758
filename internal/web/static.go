package web

import (
	"embed"
)

// staticFiles holds the control page and its stylesheet, built into the binary.
//
//go:embed static/*
var staticFiles embed.FS
