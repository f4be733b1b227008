package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	c, err := LoadFS(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if c.OnError != "abort" || c.TopN != 10 || c.RegionColumn != "state" || c.Age18Column != "age_18_greater" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ChartFormat != "png" || c.ChartScale != 1 {
		t.Fatalf("chart defaults: %s %v", c.ChartFormat, c.ChartScale)
	}
}

func TestSaveThenLoadAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	fs := afero.NewMemMapFs()
	c, _ := LoadFS(fs, "")
	c.TopN = 5
	c.OnError = "skip"
	c.RulesFile = "/etc/rules.yaml"
	if err := SaveFS(fs, c, ""); err != nil {
		t.Fatalf("SaveFS: %v", err)
	}
	if ok, _ := afero.Exists(fs, "/home/tester/.enrolpulse/config.yaml"); !ok {
		t.Fatalf("config not written to default path")
	}
	got, err := LoadFS(fs, "")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TopN != 5 || got.OnError != "skip" || got.RulesFile != "/etc/rules.yaml" {
		t.Fatalf("reloaded = %+v", got)
	}

	t.Setenv("ENROLPULSE_TOP_N", "3")
	got, err = LoadFS(fs, "")
	if err != nil {
		t.Fatalf("reload with env: %v", err)
	}
	if got.TopN != 3 {
		t.Fatalf("env override ignored: %d", got.TopN)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	c, _ := LoadFS(afero.NewMemMapFs(), "")
	c.OnError = "retry"
	c.TopN = 0
	c.ChartScale = 0
	err := Validate(c)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"on_error: retry is not one of [abort skip]", "top_n: must be at least 1", "chart_scale"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if err := SaveFS(afero.NewMemMapFs(), c, "/x.yaml"); err == nil {
		t.Fatalf("SaveFS should reject invalid config")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/cfg/run.yaml", []byte("top_n: 7\nchart_format: SVG\n"), 0o644)
	c, err := LoadFS(fs, "/cfg/run.yaml")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if c.TopN != 7 || c.ChartFormat != "svg" {
		t.Fatalf("explicit file not applied: %+v", c)
	}
	_ = afero.WriteFile(fs, "/cfg/bad.yaml", []byte("top_n: [\n"), 0o644)
	if _, err := LoadFS(fs, "/cfg/bad.yaml"); err == nil {
		t.Fatalf("expected parse error for broken file")
	}
}
