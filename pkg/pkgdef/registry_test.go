package pkgdef

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeDefinition(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func loadDir(t *testing.T, dir string) *Registry {
	t.Helper()
	r, err := LoadRegistry(context.Background(), dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return r
}

func TestRegistryMissingDirIsEmpty(t *testing.T) {
	r := loadDir(t, filepath.Join(t.TempDir(), "nope"))
	if len(r.Problems()) != 0 {
		t.Errorf("problems = %v, want none", r.Problems())
	}
	// Catalog still answers.
	if !r.Defined("bash") {
		t.Error("catalog entry bash should be defined")
	}
}

func TestRegistryCompilesDefinitionUnit(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "discord.vd", `
discord = {
	name = "Discord";
	is_nonfree = true;
	is_restricted = true;
};
`)
	r := loadDir(t, dir)
	desc := r.Lookup("discord")
	if desc.ExternalName != "Discord" {
		t.Errorf("ExternalName = %q, want Discord", desc.ExternalName)
	}
	if !desc.NonFree || !desc.Restricted {
		t.Errorf("flags = nonfree=%v restricted=%v, want both true", desc.NonFree, desc.Restricted)
	}
	if desc.Source == "" {
		t.Error("descriptor from a unit should record its source file")
	}
}

func TestRegistryDefaultsNameToSymbol(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "htop.vd", `htop = { };`)
	r := loadDir(t, dir)
	desc := r.Lookup("htop")
	if desc.ExternalName != "htop" {
		t.Errorf("ExternalName = %q, want htop", desc.ExternalName)
	}
	if desc.NonFree || desc.Restricted {
		t.Error("a bare descriptor should be ordinary")
	}
}

func TestRegistryShadowsCatalog(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "bash.vd", `
bash = {
	name = "bash-custom";
};
`)
	r := loadDir(t, dir)
	if got := r.Lookup("bash").ExternalName; got != "bash-custom" {
		t.Errorf("ExternalName = %q, definition unit should shadow the catalog", got)
	}
}

func TestRegistrySynthesizesUnknownSymbols(t *testing.T) {
	r := loadDir(t, t.TempDir())
	desc := r.Lookup("some-random-tool")
	if desc == nil {
		t.Fatal("Lookup must never return nil")
	}
	if desc.ExternalName != "some-random-tool" || desc.NonFree || desc.Restricted {
		t.Errorf("synthesized descriptor %+v should be an ordinary package", desc)
	}
	if r.Defined("some-random-tool") {
		t.Error("synthesized symbols are not explicitly defined")
	}
}

func TestRegistryMalformedUnitIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "bad.vd", `this is not valid at all`)
	writeDefinition(t, dir, "good.vd", `good = { name = "good-pkg"; };`)

	r := loadDir(t, dir)
	problems := r.Problems()
	if len(problems) != 1 {
		t.Fatalf("problems = %d, want 1", len(problems))
	}
	if !strings.Contains(problems[0].File, "bad.vd") {
		t.Errorf("problem file = %q, want bad.vd", problems[0].File)
	}
	// The healthy unit still loaded.
	if got := r.Lookup("good").ExternalName; got != "good-pkg" {
		t.Errorf("ExternalName = %q, want good-pkg", got)
	}
}

func TestRegistryUnitMustBindOneSymbol(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "two.vd", `
a = { };
b = { };
`)
	r := loadDir(t, dir)
	if len(r.Problems()) != 1 {
		t.Fatalf("problems = %v, want one", r.Problems())
	}
	if r.Defined("a") || r.Defined("b") {
		t.Error("no symbol from a malformed unit may load")
	}
}

func TestRegistryUnknownFieldIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "odd.vd", `odd = { banana = true; };`)
	r := loadDir(t, dir)
	problems := r.Problems()
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want one", problems)
	}
	if problems[0].Symbol != "odd" {
		t.Errorf("Symbol = %q, want odd", problems[0].Symbol)
	}
}

func TestRegistryCollisionLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "01-tool.vd", `tool = { name = "first"; };`)
	writeDefinition(t, dir, "02-tool.vd", `tool = { name = "second"; };`)
	r := loadDir(t, dir)
	if got := r.Lookup("tool").ExternalName; got != "second" {
		t.Errorf("ExternalName = %q, later file should win", got)
	}
}

func TestRegistryIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "notes.txt", `garbage that is not a definition`)
	r := loadDir(t, dir)
	if len(r.Problems()) != 0 {
		t.Errorf("problems = %v, non-unit files must be ignored", r.Problems())
	}
}

func TestRegistryReload(t *testing.T) {
	dir := t.TempDir()
	r := loadDir(t, dir)
	if r.Defined("late") {
		t.Fatal("late should not be defined yet")
	}
	writeDefinition(t, dir, "late.vd", `late = { };`)
	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !r.Defined("late") {
		t.Error("late should be defined after reload")
	}
}

func TestRegistrySymbolsSorted(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "zzz.vd", `zzz = { };`)
	writeDefinition(t, dir, "aaa.vd", `aaa = { };`)
	r := loadDir(t, dir)
	symbols := r.Symbols()
	for i := 1; i < len(symbols); i++ {
		if symbols[i-1] >= symbols[i] {
			t.Fatalf("symbols not sorted: %q before %q", symbols[i-1], symbols[i])
		}
	}
	has := func(want string) bool {
		for _, s := range symbols {
			if s == want {
				return true
			}
		}
		return false
	}
	if !has("aaa") || !has("zzz") || !has("bash") {
		t.Errorf("symbols %v missing units or catalog entries", symbols)
	}
}
