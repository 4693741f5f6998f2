package commands_test

import (
	"testing"

	"todo/internal/commands"
)

func TestRegistry_AliasesAndCase(t *testing.T) {
	for _, name := range []string{"toggle", "done", "RM", "delete", "create", "signin"} {
		if _, ok := commands.DefaultRegistry.Find(name); !ok {
			t.Errorf("expected %q to resolve to a command", name)
		}
	}
}

func TestRegistry_DuplicateAlias(t *testing.T) {
	reg := commands.NewRegistry()
	if err := reg.Register(&commands.RmCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// AddCmd is fine; a second RmCmd clashes on its name.
	if err := reg.Register(&commands.AddCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := reg.Register(&commands.RmCmd{})
	if err == nil || err.Error() != "command already registered: rm" {
		t.Errorf("expected duplicate name error, got %v", err)
	}

	if got := len(reg.All()); got != 2 {
		t.Errorf("expected 2 commands, got %d", got)
	}
}

func TestRegistry_AllSorted(t *testing.T) {
	all := commands.DefaultRegistry.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name() >= all[i].Name() {
			t.Errorf("commands not sorted: %s before %s", all[i-1].Name(), all[i].Name())
		}
	}
}
