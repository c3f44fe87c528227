/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
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

// logErrors drains handler write errors so a burst of failed writes never
// blocks a handler on a full channel.
func logErrors(cfg *Config, errs <-chan error) {
	for err := range errs {
		logf(cfg, "ERROR: %v", err)
	}
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="ja"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"%s/\">%s</a></body></html>", cfg.prefix, html.EscapeString(body)))

	return htmlBody.String()
}
