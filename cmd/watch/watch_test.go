package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/cmd/disassemble"
	"github.com/leefowlercu/xml-disassembler/internal/testutil"
)

func createTestCommand() *cobra.Command {
	watchOpts = disassemble.Options{}
	watchDebounceMs = 0
	watchMaxRuns = 0
	watchMetricsAddr = ""

	cmd := &cobra.Command{
		Use:     WatchCmd.Use,
		Args:    WatchCmd.Args,
		PreRunE: WatchCmd.PreRunE,
		RunE:    WatchCmd.RunE,
	}
	watchOpts.Register(cmd)
	cmd.Flags().IntVar(&watchDebounceMs, "debounce-ms", 500, "")
	cmd.Flags().Float64Var(&watchMaxRuns, "max-runs-per-second", 2, "")
	cmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "")
	return cmd
}

func TestWatchCmd_DisassemblesChangedFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("watched")

	cmd := createTestCommand()
	cmd.SetArgs([]string{dir, "--debounce-ms=20", "--max-runs-per-second=0", "--unique-id-elements=id"})
	var out bytes.Buffer
	cmd.SetOut(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "A.xml"), []byte(`<A><items><id>x</id><v>1</v></items></A>`), 0644)
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "A", "A.xml")); err != nil {
		t.Errorf("changed file was not disassembled: %v\n%s", err, out.String())
	}
	for _, want := range []string{"Watching", "Stopped", "Runs"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestWatchCmd_Errors(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("watched")

	tests := []struct {
		name string
		args []string
	}{
		{"missing directory", []string{filepath.Join(dir, "absent")}},
		{"negative debounce", []string{dir, "--debounce-ms=-1"}},
		{"negative rate", []string{dir, "--max-runs-per-second=-1"}},
		{"bad multi-level", []string{dir, "--multi-level=x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := createTestCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			if err := cmd.Execute(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
