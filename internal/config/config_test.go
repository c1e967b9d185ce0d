package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// isolateEnv points every config search tier at fresh temp directories so
// tests never see the developer's real configuration. Returns the fake
// home directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Chdir(t.TempDir())
	return home
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestInitializeSearchOrder(t *testing.T) {
	t.Run("project tier wins over user and home", func(t *testing.T) {
		home := isolateEnv(t)
		project := t.TempDir()
		writeConfigFile(t, filepath.Join(project, ".papercli"), "remote-path: /from/project\n")
		writeConfigFile(t, filepath.Join(home, ".config", "papercli"), "remote-path: /from/xdg\n")
		writeConfigFile(t, filepath.Join(home, ".papercli"), "remote-path: /from/home\n")
		t.Chdir(project)

		if err := Initialize(); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if got := GetString("remote-path"); got != "/from/project" {
			t.Errorf("remote-path = %q, want /from/project", got)
		}
	})

	t.Run("user config dir tier wins over home", func(t *testing.T) {
		home := isolateEnv(t)
		writeConfigFile(t, filepath.Join(home, ".config", "papercli"), "remote-path: /from/xdg\n")
		writeConfigFile(t, filepath.Join(home, ".papercli"), "remote-path: /from/home\n")

		if err := Initialize(); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if got := GetString("remote-path"); got != "/from/xdg" {
			t.Errorf("remote-path = %q, want /from/xdg", got)
		}
	})

	t.Run("home tier as last resort", func(t *testing.T) {
		home := isolateEnv(t)
		writeConfigFile(t, filepath.Join(home, ".papercli"), "remote-path: /from/home\n")

		if err := Initialize(); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if got := GetString("remote-path"); got != "/from/home" {
			t.Errorf("remote-path = %q, want /from/home", got)
		}
	})
}

func TestEnvOverridesConfigFile(t *testing.T) {
	home := isolateEnv(t)
	writeConfigFile(t, filepath.Join(home, ".papercli"), "remote-path: /from/file\nauto-sync: false\n")
	t.Setenv("PAPERCLI_REMOTE_PATH", "/from/env")
	t.Setenv("PAPERCLI_AUTO_SYNC", "true")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := GetString("remote-path"); got != "/from/env" {
		t.Errorf("remote-path = %q, want /from/env", got)
	}
	if !GetBool("auto-sync") {
		t.Error("auto-sync = false, want env override true")
	}
}

func TestDefaults(t *testing.T) {
	home := isolateEnv(t)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if GetBool("auto-sync") {
		t.Error("auto-sync default = true, want false")
	}
	if got := GetInt("log-max-size-mb"); got != 10 {
		t.Errorf("log-max-size-mb default = %d, want 10", got)
	}
	if got := GetString("data-dir"); got != filepath.Join(home, ".papercli") {
		t.Errorf("data-dir default = %q, want %q", got, filepath.Join(home, ".papercli"))
	}
}

func TestSetYamlConfigPreservesKeys(t *testing.T) {
	home := isolateEnv(t)
	configDir := filepath.Join(home, ".papercli")
	writeConfigFile(t, configDir, "remote-path: /existing\n")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := SetYamlConfig("prefer", "remote"); err != nil {
		t.Fatalf("SetYamlConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	settings := map[string]any{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		t.Fatalf("parsing written config: %v", err)
	}
	if settings["remote-path"] != "/existing" {
		t.Errorf("remote-path = %v, want preserved /existing", settings["remote-path"])
	}
	if settings["prefer"] != "remote" {
		t.Errorf("prefer = %v, want remote", settings["prefer"])
	}

	// The in-process view reflects the write immediately.
	if got := GetString("prefer"); got != "remote" {
		t.Errorf("GetString(prefer) = %q, want remote", got)
	}
}

func TestSetYamlConfigCreatesFile(t *testing.T) {
	home := isolateEnv(t)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := SetYamlConfig("remote-path", "/fresh"); err != nil {
		t.Fatalf("SetYamlConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".papercli", "config.yaml"))
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	settings := map[string]any{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		t.Fatal(err)
	}
	if settings["remote-path"] != "/fresh" {
		t.Errorf("remote-path = %v, want /fresh", settings["remote-path"])
	}
}
