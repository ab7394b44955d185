package main

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"luamaker/internal/reconcile"
)

// displayReason renders a skip reason for table output.
func displayReason(reason reconcile.SkipReason) string {
	return cases.Title(language.Und).String(reason.String())
}
