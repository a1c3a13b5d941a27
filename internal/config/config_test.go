package config

import "testing"

func TestParseModelDims(t *testing.T) {
	models, err := parseModelDims("gte-large-v1.5:1024, voyage-3-lite:512")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	if models["gte-large-v1.5"] != 1024 {
		t.Errorf("Expected 1024 dims, got %d", models["gte-large-v1.5"])
	}
	if models["voyage-3-lite"] != 512 {
		t.Errorf("Expected 512 dims, got %d", models["voyage-3-lite"])
	}
}

func TestParseModelDimsInvalid(t *testing.T) {
	for _, raw := range []string{"no-dims", "model:abc", "model:0", "model:-5"} {
		if _, err := parseModelDims(raw); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestParseModelDimsSkipsEmptyEntries(t *testing.T) {
	models, err := parseModelDims("a:1,, b:2 ,")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(models) != 2 {
		t.Errorf("Expected 2 models, got %d", len(models))
	}
}
