package app

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterServeFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterServeFlags(flags)

	// Verify all flags are registered
	expectedFlags := []string{
		"transport",
		"host",
		"port",
		"auth-type",
		"auth-basic-username",
		"auth-basic-password",
		"auth-api-keys",
		"rules",
		"concurrency",
		"root",
		"grammar-enabled",
		"grammar-url",
		"archive-enabled",
		"archive-path",
	}

	for _, name := range expectedFlags {
		if flags.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}
}

func TestRegisterServeFlags_Shorthand(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterServeFlags(flags)

	shorthandFlags := map[string]string{
		"transport":           "t",
		"host":                "H",
		"port":                "p",
		"auth-type":           "a",
		"auth-basic-username": "u",
		"auth-basic-password": "P",
		"auth-api-keys":       "k",
		"rules":               "r",
		"concurrency":         "c",
	}

	for name, shorthand := range shorthandFlags {
		flag := flags.Lookup(name)
		if flag == nil {
			t.Errorf("Flag %q not found", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("Flag %q expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestRegisterServeFlags_SetValues(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterServeFlags(flags)

	err := flags.Parse([]string{
		"--transport", "sse",
		"--host", "localhost",
		"--port", "9090",
		"--grammar-url", "http://localhost:8010/v2/check",
		"--concurrency", "8",
	})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	transport, _ := flags.GetString("transport")
	if transport != "sse" {
		t.Errorf("Expected transport 'sse', got '%s'", transport)
	}

	host, _ := flags.GetString("host")
	if host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", host)
	}

	port, _ := flags.GetInt("port")
	if port != 9090 {
		t.Errorf("Expected port 9090, got %d", port)
	}

	grammarURL, _ := flags.GetString("grammar-url")
	if grammarURL != "http://localhost:8010/v2/check" {
		t.Errorf("Expected grammar URL flag to round-trip, got '%s'", grammarURL)
	}

	concurrency, _ := flags.GetInt("concurrency")
	if concurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", concurrency)
	}
}

func TestRegisterGitHubFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterGitHubFlags(flags)

	for _, name := range []string{"github-token", "github-base-url"} {
		if flags.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}
}
