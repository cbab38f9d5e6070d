package main

import "testing"

func TestScrapeCmd_Flags(t *testing.T) {
	for _, name := range []string{"user", "limit", "format", "show"} {
		if scrapeCmd.Flags().Lookup(name) == nil {
			t.Errorf("scrape is missing the --%s flag", name)
		}
	}
}

func TestListUsersCmd_LimitFlag(t *testing.T) {
	f := listUsersCmd.Flags().Lookup("limit")
	if f == nil {
		t.Fatal("list-users is missing the --limit flag")
	}
	if f.Shorthand != "l" {
		t.Errorf("limit shorthand = %q, want %q", f.Shorthand, "l")
	}
	if f.DefValue != "0" {
		t.Errorf("limit default = %q, want %q", f.DefValue, "0")
	}
}

func TestListUsersCmd_ParsesLimit(t *testing.T) {
	if err := listUsersCmd.ParseFlags([]string{"--limit", "50"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	got, err := listUsersCmd.Flags().GetInt("limit")
	if err != nil {
		t.Fatalf("GetInt() error = %v", err)
	}
	if got != 50 {
		t.Errorf("limit = %d, want 50", got)
	}
}
