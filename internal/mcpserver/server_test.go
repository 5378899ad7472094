package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HiroshiOkada/update-notes/internal/aggregate"
	"github.com/HiroshiOkada/update-notes/internal/runservice"
	"github.com/HiroshiOkada/update-notes/internal/storage"
	"github.com/HiroshiOkada/update-notes/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	if err := store.MkdirAll("in"); err != nil {
		t.Fatal(err)
	}
	engine := aggregate.New(store, testutil.SilentLogger())
	svc := runservice.NewService(engine, db, "in", "out")
	return New(svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error
	switch name {
	case "run_consolidation":
		result, err = srv.runConsolidation(ctx, req)
	case "list_runs":
		result, err = srv.listRuns(ctx, req)
	case "get_run_notes":
		result, err = srv.getRunNotes(ctx, req)
	default:
		t.Fatalf("unknown tool %q", name)
	}
	if err != nil {
		t.Fatalf("tool %s: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestRunConsolidationTool(t *testing.T) {
	srv, store := testServer(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_ = store.Write("in/"+yesterday+".md", []byte("# 日記\n記録\n"))

	res := callTool(t, srv, "run_consolidation", nil)
	if res.IsError {
		t.Fatalf("tool errored: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, `"processed": 1`) {
		t.Errorf("report = %s, want processed: 1", text)
	}
	if !store.Exists("out/日記.md") {
		t.Error("output file should exist after the run")
	}
}

func TestListRunsTool_Empty(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "list_runs", nil)
	if got := resultText(t, res); got != "no runs recorded" {
		t.Errorf("text = %q", got)
	}
}

func TestGetRunNotesTool(t *testing.T) {
	srv, store := testServer(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_ = store.Write("in/"+yesterday+".md", []byte("# 日記\n記録\n"))
	_ = callTool(t, srv, "run_consolidation", nil)

	res := callTool(t, srv, "get_run_notes", map[string]interface{}{"run_id": 1})
	text := resultText(t, res)
	if !strings.Contains(text, yesterday+".md") {
		t.Errorf("notes = %s, want the processed file name", text)
	}
}

func TestGetRunNotesTool_MissingArg(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "get_run_notes", nil)
	if !res.IsError {
		t.Error("missing run_id should produce a tool error")
	}
}
