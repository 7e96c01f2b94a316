package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/batch"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vpsearch/internal/version"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "serve", "search", "ingest", "index", "mcp"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"env", "config", "json"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"text", []string{"version"}, version.String()},
		{"json", []string{"version", "--json"}, `"version":"` + version.Version + `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs(tt.args)
			if err := root.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestIndexDrop_RequiresConfirmation(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"index", "drop"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestSearchCmd_RequiresDepartment(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"search"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error without department")
	}
}

func TestWriteOutcomeTable(t *testing.T) {
	out := result.Succeeded([]result.Result{
		result.New("Alice", "VP of Sales", 0.91),
		result.New("Carol", "VP of Business Development", 0.72),
	})

	var buf bytes.Buffer
	if err := writeOutcomeTable(&buf, out); err != nil {
		t.Fatalf("writeOutcomeTable: %v", err)
	}
	got := buf.String()

	for _, want := range []string{"NAME", "ROLE", "SCORE", "BAND", "Alice", "VP of Sales", "0.9100", "excellent", "Carol", "good", "average score 0.8150"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "Alice") > strings.Index(got, "Carol") {
		t.Errorf("results out of order:\n%s", got)
	}
}

func TestWriteOutcomeTable_EmptyAndFailed(t *testing.T) {
	tests := []struct {
		name string
		out  result.Outcome
		want string
	}{
		{"empty", result.Succeeded(nil), "no matching roles"},
		{"failed", result.Failed(domain.ErrIndexUnavailable), "search failed: index unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeOutcomeTable(&buf, tt.out); err != nil {
				t.Fatalf("writeOutcomeTable: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteOutcomeJSON(t *testing.T) {
	out := result.Succeeded([]result.Result{result.New("Alice", "VP of Sales", 0.5)})

	var buf bytes.Buffer
	if err := writeOutcomeJSON(&buf, out); err != nil {
		t.Fatalf("writeOutcomeJSON: %v", err)
	}

	var got outcomeJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != "ok" || got.Count != 1 || got.Results[0].Name != "Alice" {
		t.Errorf("unexpected response: %+v", got)
	}
	if got.Results[0].Band != string(result.BandFair) {
		t.Errorf("band = %q, want %q", got.Results[0].Band, result.BandFair)
	}
}

func TestWriteIngestSummary(t *testing.T) {
	results := []batch.Result{
		batch.NewOK(1, "a"),
		batch.NewError(2, errors.New("name is required")),
		batch.NewOK(3, "b"),
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeIngestSummary(&buf, results, false); err != nil {
			t.Fatalf("writeIngestSummary: %v", err)
		}
		got := buf.String()
		if !strings.Contains(got, "ingested 2, failed 1") {
			t.Errorf("missing summary line: %q", got)
		}
		if !strings.Contains(got, "line 2: name is required") {
			t.Errorf("missing line error: %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeIngestSummary(&buf, results, true); err != nil {
			t.Fatalf("writeIngestSummary: %v", err)
		}
		var got struct {
			OK     int `json:"ok"`
			Failed int `json:"failed"`
			Errors []struct {
				Line int `json:"line"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.OK != 2 || got.Failed != 1 || len(got.Errors) != 1 || got.Errors[0].Line != 2 {
			t.Errorf("unexpected summary: %+v", got)
		}
	})
}

func TestNewApp_BadEmbeddingKeyFailsBeforeDatabase(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
	}{
		{"openai placeholder", "openai", "YOUR_OPENAI_API_KEY"},
		{"openai empty", "openai", ""},
		{"gemini empty", "gemini", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Порт 1 никто не слушает: если бы БД опрашивалась первой, ошибка была бы другой.
			path := filepath.Join(t.TempDir(), "vpsearch.yaml")
			cfg := "database:\n  addrs: [\"127.0.0.1:1\"]\n  readiness_timeout_sec: 30\n" +
				"embedding:\n  provider: " + tt.provider + "\n  api_key: \"" + tt.apiKey + "\"\n"
			if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			start := time.Now()
			a, err := newApp(ctx, appOptions{env: "test", configPath: path, needsEmbedder: true})
			if err == nil {
				a.Close()
				t.Fatal("newApp should fail")
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
			if d := time.Since(start); d > 2*time.Second {
				t.Errorf("newApp took %v, database was probably dialed first", d)
			}
		})
	}
}
