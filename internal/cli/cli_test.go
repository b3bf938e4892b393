package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to x3d", "", []string{"x3d"}},
		{"single", "json", []string{"json"}},
		{"multiple", "x3d,json,svg", []string{"x3d", "json", "svg"}},
		{"spaces trimmed", "x3d, json", []string{"x3d", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"no output strips input extension", "", "docs/readme.md", "docs/readme"},
		{"output with format extension", "out/scene.x3d", "readme.md", "out/scene"},
		{"output with json extension", "scene.json", "readme.md", "scene"},
		{"output without known extension", "out/scene", "readme.md", "out/scene"},
		{"output with unrelated extension", "notes.txt", "readme.md", "notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := basePath(tt.output, tt.input)
			if got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"x3d", "scene.x3d"},
		{"json", "scene.json"},
		{"x3d.2", "scene_2.x3d"},
		{"svg.3", "scene_3.svg"},
	}

	for _, tt := range tests {
		got := artifactPath("scene", tt.key)
		if got != tt.want {
			t.Errorf("artifactPath(scene, %q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "scene")

	artifacts := map[string][]byte{
		"x3d":   []byte("<X3D/>"),
		"x3d.2": []byte("<X3D second/>"),
		"json":  []byte("{}"),
	}

	written, err := writeArtifacts(artifacts, []string{"x3d", "json"}, 2, base)
	if err != nil {
		t.Fatalf("writeArtifacts failed: %v", err)
	}

	want := []string{base + ".x3d", base + "_2.x3d", base + ".json"}
	if !reflect.DeepEqual(written, want) {
		t.Errorf("written paths = %v, want %v", written, want)
	}

	for _, path := range want {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s should exist: %v", path, err)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogWarn)
	root := c.RootCommand()

	want := []string{"convert", "layout", "analyze", "templates", "serve", "mcp", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command should register %q", name)
		}
	}
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()

	// Missing file is not an error
	cfg, err := loadProjectConfig(dir)
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if cfg != nil {
		t.Fatal("missing config should return nil")
	}

	content := "template = \"documentation\"\nseed = 7\nno_force = true\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err = loadProjectConfig(dir)
	if err != nil {
		t.Fatalf("loadProjectConfig failed: %v", err)
	}
	if cfg.Template != "documentation" {
		t.Errorf("Template = %q, want %q", cfg.Template, "documentation")
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Errorf("Seed = %v, want 7", cfg.Seed)
	}
	if cfg.NoForce == nil || !*cfg.NoForce {
		t.Errorf("NoForce = %v, want true", cfg.NoForce)
	}
	if cfg.Spacing != nil {
		t.Error("Spacing should stay unset")
	}
}

func TestLoadProjectConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("template = [broken"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadProjectConfig(dir); err == nil {
		t.Error("malformed config should fail")
	}
}

func TestProjectConfigApply(t *testing.T) {
	seed := uint64(7)
	noForce := true
	cfg := &projectConfig{Template: "documentation", Seed: &seed, NoForce: &noForce}

	// Without explicit flags, config values win.
	var opts pipeline.Options
	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "")
	cmd.Flags().BoolVar(&opts.NoForce, "no-force", false, "")

	cfg.apply(cmd, &opts, nil)
	if opts.Template != "documentation" {
		t.Errorf("Template = %q, want config value", opts.Template)
	}
	if opts.Seed != 7 {
		t.Errorf("Seed = %d, want 7", opts.Seed)
	}
	if !opts.NoForce {
		t.Error("NoForce should come from config")
	}

	// An explicit flag beats the config.
	opts = pipeline.Options{}
	cmd = &cobra.Command{}
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "")
	if err := cmd.Flags().Set("template", "hierarchical"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg.apply(cmd, &opts, nil)
	if opts.Template != "hierarchical" {
		t.Errorf("Template = %q, explicit flag should win", opts.Template)
	}

	// A nil config applies nothing.
	var nilCfg *projectConfig
	opts = pipeline.Options{}
	nilCfg.apply(cmd, &opts, nil)
	if opts.Seed != 0 {
		t.Error("nil config should not touch options")
	}
}

func TestProjectConfigApplyFormat(t *testing.T) {
	cfg := &projectConfig{Format: "json,svg"}

	var opts pipeline.Options
	formatsStr := ""
	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "")

	cfg.apply(cmd, &opts, &formatsStr)
	if formatsStr != "json,svg" {
		t.Errorf("formatsStr = %q, want config value", formatsStr)
	}

	// Explicit --format wins.
	formatsStr = ""
	cmd = &cobra.Command{}
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "")
	if err := cmd.Flags().Set("format", "x3d"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg.apply(cmd, &opts, &formatsStr)
	if formatsStr != "x3d" {
		t.Errorf("formatsStr = %q, explicit flag should win", formatsStr)
	}
}
