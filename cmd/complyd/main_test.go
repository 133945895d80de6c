package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/farmdesk/complyd/internal/types"
)

func TestExitErrCarriesCode(t *testing.T) {
	err := exitErr("%d requirement(s) failed", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if ee.code != 1 {
		t.Errorf("got code %d, want 1", ee.code)
	}
	if ee.msg != "3 requirement(s) failed" {
		t.Errorf("got msg %q", ee.msg)
	}
}

func TestColorStatusPadsBeforeColoring(t *testing.T) {
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	for _, s := range []types.ResolvedStatus{
		types.StatusSatisfied,
		types.StatusMissing,
		types.StatusExpired,
		types.StatusNeedsReview,
	} {
		got := colorStatus(s)
		// The padded text must sit inside the escape codes so the visible
		// column width stays constant.
		want := fmt.Sprintf("%-14s", string(s))
		if !strings.Contains(got, want) {
			t.Errorf("colorStatus(%s) = %q, want it to contain %q", s, got, want)
		}
	}
}
