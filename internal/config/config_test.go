package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setupEnv(t *testing.T) (configHome, dataHome string) {
	t.Helper()
	configHome = t.TempDir()
	dataHome = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("PDK_HOST", "")
	t.Setenv("PDK_FOLDER_DIR", "")
	t.Setenv("PDK_DB_PATH", "")
	return configHome, dataHome
}

func TestLoadDefaults(t *testing.T) {
	_, dataHome := setupEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host != "folder" {
		t.Errorf("host = %q, want folder", c.Host)
	}
	if c.FolderDir != filepath.Join(dataHome, "pdk", "host") {
		t.Errorf("folder_dir = %q", c.FolderDir)
	}
	if c.DbPath != filepath.Join(dataHome, "pdk", "pdk.db") {
		t.Errorf("db_path = %q", c.DbPath)
	}
	if c.EncryptKey != "" {
		t.Error("encrypt_key should default empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	configHome, _ := setupEnv(t)
	dir := filepath.Join(configHome, "pdk")
	os.MkdirAll(dir, 0755)
	yaml := `
host: s3
s3:
  bucket: signage
  region: eu-west-1
  endpoint: http://localhost:9000
  path_style: true
encrypt_key: "00ff"
`
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host != "s3" {
		t.Errorf("host = %q", c.Host)
	}
	if c.S3.Bucket != "signage" || c.S3.Region != "eu-west-1" || !c.S3.PathStyle {
		t.Errorf("s3 = %+v", c.S3)
	}
	if c.EncryptKey != "00ff" {
		t.Errorf("encrypt_key = %q", c.EncryptKey)
	}
}

func TestEnvOverrides(t *testing.T) {
	setupEnv(t)
	t.Setenv("PDK_HOST", "sqlite")
	t.Setenv("PDK_DB_PATH", "/tmp/other.db")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host != "sqlite" {
		t.Errorf("host = %q", c.Host)
	}
	if c.DbPath != "/tmp/other.db" {
		t.Errorf("db_path = %q", c.DbPath)
	}
}

func TestUnknownHostRejected(t *testing.T) {
	setupEnv(t)
	t.Setenv("PDK_HOST", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Error("unknown host backend should fail")
	}
}

func TestPathExpansion(t *testing.T) {
	configHome, dataHome := setupEnv(t)
	dir := filepath.Join(configHome, "pdk")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("folder_dir: $XDG_DATA_HOME/signage\n"), 0644)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.FolderDir != filepath.Join(dataHome, "signage") {
		t.Errorf("folder_dir = %q", c.FolderDir)
	}
}
