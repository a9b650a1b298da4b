/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// drainErrors logs write failures reported by handlers until ctx ends.
func drainErrors(ctx context.Context, cfg *Config, errs <-chan error) {
	for {
		select {
		case err := <-errs:
			logf(cfg, "ERROR: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/santa/assets/app.css">`, cfg.prefix))
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf(`<body><main class="card"><a href="%s/santa">%s</a></main></body></html>`, cfg.prefix, html.EscapeString(body)))

	return htmlBody.String()
}
