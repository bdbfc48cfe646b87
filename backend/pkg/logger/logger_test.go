package logger

import "testing"

func TestInit(t *testing.T) {
	for _, env := range []string{"development", "production", ""} {
		if err := Init(env); err != nil {
			t.Errorf("Init(%q) failed: %v", env, err)
		}
		if Logger == nil {
			t.Fatalf("Init(%q) left the global logger nil", env)
		}
	}
}

func TestBuildConfig_ProductionCarriesServiceField(t *testing.T) {
	config := buildConfig("production")
	if config.InitialFields["service"] != serviceName {
		t.Errorf("Expected service field %q, got %v", serviceName, config.InitialFields["service"])
	}
}

func TestNamed_BeforeInit(t *testing.T) {
	Logger = nil
	if Named("sampler") == nil {
		t.Error("Expected a usable logger before Init")
	}
}
