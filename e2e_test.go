//go:build e2e

package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visible(t *testing.T, l playwright.Locator) {
	t.Helper()
	require.NoError(t, l.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}))
}

func TestBrowserGame(t *testing.T) {
	pw, err := playwright.Run()
	require.NoError(t, err)
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	require.NoError(t, err)
	defer browser.Close()

	mux, shutdown, err := newRouter(testConfig(), testErrs(t))
	require.NoError(t, err)
	defer shutdown()

	server := httptest.NewServer(mux)
	defer server.Close()

	bc, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Locale: playwright.String("ja-JP"),
	})
	require.NoError(t, err)
	defer bc.Close()

	page, err := bc.NewPage()
	require.NoError(t, err)

	_, err = page.Goto(server.URL + "/wordwolf")
	require.NoError(t, err)

	visible(t, page.Locator("#screen-setup"))

	t.Run("Invalid setup shows one error and stays on setup", func(t *testing.T) {
		require.NoError(t, page.Locator("#start").Click())
		visible(t, page.Locator("#error"))

		text, err := page.Locator("#error").TextContent()
		require.NoError(t, err)
		assert.Equal(t, "お題を入力してください", text)
	})

	players := []string{"太郎", "花子", "次郎"}

	require.NoError(t, page.Locator("#theme").Fill("果物"))
	_, err = page.Locator("#time-limit").SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice("1"),
	})
	require.NoError(t, err)
	for i, name := range players {
		require.NoError(t, page.Locator("#nicknames input").Nth(i).Fill(name))
	}
	require.NoError(t, page.Locator("#start").Click())

	seen := make([]string, len(players))
	for i := range players {
		visible(t, page.Locator("#screen-memorize_confirm"))
		require.NoError(t, page.Locator("#screen-memorize_confirm button").Click())

		visible(t, page.Locator("#screen-memorize_reveal"))
		seen[i], err = page.Locator("#screen-memorize_reveal .word").TextContent()
		require.NoError(t, err)
		require.NotEmpty(t, seen[i])

		require.NoError(t, page.Locator("#screen-memorize_reveal button").Click())
	}

	// Exactly one player saw the odd word out.
	counts := make(map[string]int)
	for _, w := range seen {
		counts[w]++
	}
	require.Len(t, counts, 2)
	wolf := -1
	for i, w := range seen {
		if counts[w] == 1 {
			wolf = i
		}
	}

	visible(t, page.Locator("#screen-discussion"))
	clock, err := page.Locator("#screen-discussion .clock").TextContent()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(clock, "0"), "clock %q", clock)

	require.NoError(t, page.Locator("#screen-discussion button[data-command=end_discussion]").Click())

	visible(t, page.Locator("#screen-voting"))
	require.NoError(t, page.Locator("#vote-list button").Nth(wolf).Click())
	visible(t, page.Locator("#vote-list button.selected"))
	require.NoError(t, page.Locator("#screen-voting button[data-command=submit_vote]").Click())

	visible(t, page.Locator("#screen-result"))
	title, err := page.Locator("#screen-result h2").TextContent()
	require.NoError(t, err)
	assert.Contains(t, title, "市民")

	stored, err := page.Evaluate("() => localStorage.getItem('wordwolf_nicknames')")
	require.NoError(t, err)
	assert.Equal(t, `["太郎","花子","次郎"]`, stored)

	require.NoError(t, page.Locator("#screen-result button").Click())
	visible(t, page.Locator("#screen-setup"))

	first, err := page.Locator("#nicknames input").First().InputValue()
	require.NoError(t, err)
	assert.Equal(t, "太郎", first)
}
