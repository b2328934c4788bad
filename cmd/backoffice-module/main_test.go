package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

const menusYAML = `
menus:
  - name: Backoffice
  - name: Roles
    parent: Backoffice
    area: Backoffice
    page: /roles
buttons:
  - menu: Roles
    name: Add
    type: Create
    area: Backoffice
    url: /roles/create
`

func TestImportMenusCommand(t *testing.T) {
	t.Setenv("BO_STORE", "memory")
	t.Setenv("BO_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), "menus.yaml")
	if err := os.WriteFile(path, []byte(menusYAML), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"import-menus", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var res service.ImportResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("Unmarshal %q: %v", out.String(), err)
	}
	want := service.ImportResult{MenusCreated: 2, ButtonsCreated: 1}
	if res != want {
		t.Errorf("результат = %+v, хотели %+v", res, want)
	}
}

func TestImportMenusCommand_Errors(t *testing.T) {
	t.Setenv("BO_STORE", "memory")

	tests := []struct {
		name string
		args []string
	}{
		{"нет аргумента", []string{"import-menus"}},
		{"нет файла", []string{"import-menus", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"неизвестный формат", []string{"import-menus", writeTemp(t, "menus.json", "{}")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err == nil {
				t.Error("ожидалась ошибка")
			}
		})
	}
}

func TestMigrateCommand_MemoryStore(t *testing.T) {
	t.Setenv("BO_STORE", "memory")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
